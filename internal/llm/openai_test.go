package llm

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronocheck/internal/testutil"
)

func newRecordedBackend(t *testing.T, cassette string) *OpenAIBackend {
	t.Helper()
	recorder := testutil.NewVCRRecorder(t, cassette)

	// Use a dummy key for replay mode if not set
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}
	return NewOpenAIBackend(OpenAIConfig{
		APIKey:     apiKey,
		HTTPClient: testutil.VCRHTTPClient(recorder),
	})
}

func TestOpenAIBackend_GeneralQuery(t *testing.T) {
	b := newRecordedBackend(t, "openai_general_query")
	assert.Equal(t, DefaultModel, b.Model())

	res, err := b.GeneralQuery(context.Background(), "What is HbA1c?")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Message)
	assert.Contains(t, *res.Message, "average blood sugar")
	assert.Nil(t, res.Error)
	assert.False(t, res.DemoMode)
}

func TestOpenAIBackend_Unauthorized(t *testing.T) {
	b := newRecordedBackend(t, "openai_unauthorized")

	_, err := b.AuditBill(context.Background(), "Comprehensive medical bill audit", true, "bill.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)
}

func TestOpenAIBackend_EmptyChoices(t *testing.T) {
	b := newRecordedBackend(t, "openai_empty_choices")

	res, err := b.SearchFacilities(context.Background(), "Find hospitals in Pune for: MRI", "Pune")
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Nil(t, res.Message)
}

func TestWithAttachment(t *testing.T) {
	assert.Equal(t, "audit", withAttachment("audit", false, "bill.pdf"))
	assert.Equal(t, "audit", withAttachment("audit", true, ""))
	assert.Equal(t, "audit\n\nAttached document: bill.pdf", withAttachment("audit", true, "bill.pdf"))
}
