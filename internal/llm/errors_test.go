package llm

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	plain := errors.New("boom")
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, ErrUnauthorized},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403, Message: "nope"}, ErrUnauthorized},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, ErrRateLimited},
		{"server error", &openai.RequestError{HTTPStatusCode: 503, Err: plain}, ErrUnavailable},
		{"unclassified", plain, plain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tc.err), tc.want)
		})
	}
	assert.NoError(t, classify(nil))
}
