package pkg

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIResult_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want APIResult
	}{
		{"snake case demo flag", `{"success":false,"message":"m","demo_mode":true}`, APIResult{Message: Text("m"), DemoMode: true}},
		{"camel case demo flag", `{"success":false,"message":"m","demoMode":true}`, APIResult{Message: Text("m"), DemoMode: true}},
		{"plain success", `{"success":true,"message":"ok"}`, APIResult{Success: true, Message: Text("ok")}},
		{"error only", `{"success":false,"error":"E"}`, APIResult{Error: Text("E")}},
		{"empty object", `{}`, APIResult{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got APIResult
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHistoryEntry_Preview(t *testing.T) {
	h := HistoryEntry{Question: strings.Repeat("q", 100), Answer: "short"}
	q, a := h.Preview()
	assert.Equal(t, strings.Repeat("q", 80)+"...", q)
	assert.Equal(t, "short", a)

	h = HistoryEntry{Question: "क्या", Answer: strings.Repeat("अ", 130)}
	q, a = h.Preview()
	assert.Equal(t, "क्या", q)
	assert.Equal(t, 123, len([]rune(a)))
}
