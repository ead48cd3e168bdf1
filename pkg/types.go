package pkg

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

// APIResult is the raw reply of the AI backend. It is untrusted: any field
// may be missing, and only the core's interpreter decides what it means.
type APIResult struct {
	Success  bool    `json:"success"`
	Message  *string `json:"message,omitempty"`
	Error    *string `json:"error,omitempty"`
	DemoMode bool    `json:"demo_mode,omitempty"`
}

// UnmarshalJSON accepts both demo_mode and demoMode, since backends built on
// different stacks disagree on casing.
func (r *APIResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success   bool    `json:"success"`
		Message   *string `json:"message"`
		Error     *string `json:"error"`
		DemoMode  *bool   `json:"demo_mode"`
		DemoCamel *bool   `json:"demoMode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Success = raw.Success
	r.Message = raw.Message
	r.Error = raw.Error
	r.DemoMode = false
	if raw.DemoMode != nil {
		r.DemoMode = *raw.DemoMode
	} else if raw.DemoCamel != nil {
		r.DemoMode = *raw.DemoCamel
	}
	return nil
}

// Text returns a pointer to s, for building APIResult literals.
func Text(s string) *string { return &s }

// HistoryEntry is one question/answer pair kept in a session.
type HistoryEntry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Preview shortens the pair the way the history panel shows it: the question
// cut to 80 runes and the answer to 120.
func (h HistoryEntry) Preview() (question, answer string) {
	return truncate(h.Question, 80), truncate(h.Answer, 120)
}

// HistoryPreview is the shortened form of a HistoryEntry.
type HistoryPreview struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// SessionSnapshot is a read-only copy of a consultation session handed to
// the presentation layer. Previews mirrors History and is never stored.
type SessionSnapshot struct {
	ID                string           `json:"id"`
	CurrentWorkflow   string           `json:"current_workflow"`
	QueryCount        int              `json:"query_count"`
	CumulativeSavings int64            `json:"cumulative_savings"`
	History           []HistoryEntry   `json:"history"`
	Previews          []HistoryPreview `json:"previews"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// SubmitRequest carries the raw field values of one workflow form. When
// Workflow is empty the session's current workflow is used.
type SubmitRequest struct {
	Workflow string         `json:"workflow,omitempty"`
	Fields   map[string]any `json:"fields"`
}

// OutcomeView is the wire form of a canonical outcome.
type OutcomeView struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Demo    bool   `json:"demo"`
}

// SubmitResponse is returned after a workflow submission completed.
type SubmitResponse struct {
	Workflow     string          `json:"workflow"`
	Outcome      OutcomeView     `json:"outcome"`
	SavingsAdded int64           `json:"savings_added,omitempty"`
	Session      SessionSnapshot `json:"session"`
}

// SelectWorkflowRequest moves a session to another workflow or back to the
// dashboard.
type SelectWorkflowRequest struct {
	Workflow string `json:"workflow"`
}

// FieldInfo describes one input field of a workflow form.
type FieldInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// WorkflowInfo describes a workflow for the dashboard and form rendering.
type WorkflowInfo struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Summary  string      `json:"summary"`
	Fields   []FieldInfo `json:"fields"`
	AnyOf    []string    `json:"any_of,omitempty"`
	Progress []string    `json:"progress,omitempty"`
}

// ProgressEvent is one tick of the cosmetic "analyzing" progress stream.
type ProgressEvent struct {
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}
