package llm

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts instruction tokens with the tokenizer of the chat
// model, for logs and traces.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter picks the codec for model, falling back to the o200k
// encoding used by current OpenAI chat models.
func NewTokenCounter(model string) (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(strings.ToLower(model)))
	if err == nil {
		return &TokenCounter{codec: codec}, nil
	}
	codec, err = tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &TokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text.
func (t *TokenCounter) Count(text string) (int, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
