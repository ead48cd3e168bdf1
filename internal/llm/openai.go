package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"chronocheck/pkg"
)

// OpenAIConfig configures the OpenAI-backed backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// HTTPClient overrides the transport, e.g. for recorded tests.
	HTTPClient *http.Client
}

// OpenAIBackend serves every consultation operation through the chat
// completion API, one request per call.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// NewOpenAIBackend constructs an OpenAI-backed backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Model returns the chat model in use.
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) GeneralQuery(ctx context.Context, instruction string) (pkg.APIResult, error) {
	return b.complete(ctx, systemGeneral, instruction)
}

func (b *OpenAIBackend) AnalyzeDocument(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	return b.complete(ctx, systemReport, withAttachment(instruction, fileUploaded, fileName))
}

func (b *OpenAIBackend) SearchFacilities(ctx context.Context, instruction string, location string) (pkg.APIResult, error) {
	if location != "" {
		instruction += "\n\n" + fmt.Sprintf(locationNote, location)
	}
	return b.complete(ctx, systemFacility, instruction)
}

func (b *OpenAIBackend) ExplainMedication(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	return b.complete(ctx, systemMedication, withAttachment(instruction, fileUploaded, fileName))
}

func (b *OpenAIBackend) AuditBill(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	return b.complete(ctx, systemBill, withAttachment(instruction, fileUploaded, fileName))
}

// complete sends the system prompt and instruction and wraps the first
// choice. An empty choice list is a failed reply, not a transport error.
func (b *OpenAIBackend) complete(ctx context.Context, system, instruction string) (pkg.APIResult, error) {
	if b.client == nil {
		return pkg.APIResult{}, errors.New("openai client not initialized")
	}
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: instruction},
		},
		Temperature: b.temperature,
	})
	if err != nil {
		return pkg.APIResult{}, classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return pkg.APIResult{Success: false, Error: pkg.Text("backend returned an empty answer")}, nil
	}
	return pkg.APIResult{Success: true, Message: pkg.Text(resp.Choices[0].Message.Content)}, nil
}

func withAttachment(instruction string, fileUploaded bool, fileName string) string {
	if !fileUploaded || fileName == "" {
		return instruction
	}
	return instruction + "\n\n" + fmt.Sprintf(attachmentNote, fileName)
}
