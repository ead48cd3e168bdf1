package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chronocheck/pkg"
)

func TestInterpret(t *testing.T) {
	cases := []struct {
		name string
		raw  pkg.APIResult
		kind OutcomeKind
		text string
	}{
		{"success with message", pkg.APIResult{Success: true, Message: pkg.Text("X")}, OutcomeDelivered, "X"},
		{"demo fallback", pkg.APIResult{Success: false, Message: pkg.Text("Y"), DemoMode: true}, OutcomeDemoDelivered, "Y"},
		{"demo fallback with error text", pkg.APIResult{Success: false, Message: pkg.Text("Y"), Error: pkg.Text("API unavailable"), DemoMode: true}, OutcomeDemoDelivered, "Y"},
		{"failure with error", pkg.APIResult{Success: false, Error: pkg.Text("E")}, OutcomeFailed, "E"},
		{"bare failure", pkg.APIResult{Success: false}, OutcomeFailed, UnknownError},
		{"failure with message but no demo flag", pkg.APIResult{Success: false, Message: pkg.Text("Y")}, OutcomeFailed, UnknownError},
		{"success without message", pkg.APIResult{Success: true}, OutcomeFailed, UnknownError},
		{"success with error only", pkg.APIResult{Success: true, Error: pkg.Text("E")}, OutcomeFailed, UnknownError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Interpret(tc.raw)
			assert.Equal(t, tc.kind, out.Kind())
			if tc.kind == OutcomeFailed {
				text, ok := out.ErrorText()
				assert.True(t, ok)
				assert.Equal(t, tc.text, text)
				_, ok = out.Message()
				assert.False(t, ok)
				assert.False(t, out.Delivered())
				return
			}
			msg, ok := out.Message()
			assert.True(t, ok)
			assert.Equal(t, tc.text, msg)
			assert.True(t, out.Delivered())
		})
	}
}

func TestOutcomeView(t *testing.T) {
	view := Interpret(pkg.APIResult{Message: pkg.Text("sample"), DemoMode: true}).View()
	assert.Equal(t, pkg.OutcomeView{Kind: "demo_delivered", Message: "sample", Demo: true}, view)

	view = Interpret(pkg.APIResult{Error: pkg.Text("down")}).View()
	assert.Equal(t, pkg.OutcomeView{Kind: "failed", Error: "down"}, view)
}
