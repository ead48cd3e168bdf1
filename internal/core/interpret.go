package core

import "chronocheck/pkg"

// OutcomeKind tags the canonical outcome of one workflow invocation.
type OutcomeKind string

const (
	OutcomeDelivered     OutcomeKind = "delivered"
	OutcomeDemoDelivered OutcomeKind = "demo_delivered"
	OutcomeFailed        OutcomeKind = "failed"
)

// UnknownError is the failure text used when the backend gave none.
const UnknownError = "Unknown error"

// Outcome is the normalized backend reply. Only Interpret constructs it;
// nothing downstream looks at the raw reply.
type Outcome struct {
	kind OutcomeKind
	text string
}

// Interpret classifies a raw reply:
//
//  1. success with a message      -> Delivered(message)
//  2. demo failure with a message -> DemoDelivered(message)
//  3. failure with an error       -> Failed(error)
//  4. anything else               -> Failed("Unknown error")
func Interpret(raw pkg.APIResult) Outcome {
	switch {
	case raw.Success && raw.Message != nil:
		return Outcome{kind: OutcomeDelivered, text: *raw.Message}
	case !raw.Success && raw.Message != nil && raw.DemoMode:
		return Outcome{kind: OutcomeDemoDelivered, text: *raw.Message}
	case !raw.Success && raw.Error != nil:
		return Outcome{kind: OutcomeFailed, text: *raw.Error}
	default:
		return Outcome{kind: OutcomeFailed, text: UnknownError}
	}
}

// Kind returns the outcome tag.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Message returns the displayable content of a delivered outcome.
func (o Outcome) Message() (string, bool) {
	if o.kind == OutcomeFailed {
		return "", false
	}
	return o.text, true
}

// ErrorText returns the failure text of a failed outcome.
func (o Outcome) ErrorText() (string, bool) {
	if o.kind != OutcomeFailed {
		return "", false
	}
	return o.text, true
}

// Delivered reports whether the outcome carries content, demo or not.
func (o Outcome) Delivered() bool {
	return o.kind == OutcomeDelivered || o.kind == OutcomeDemoDelivered
}

// View converts the outcome to its wire form.
func (o Outcome) View() pkg.OutcomeView {
	view := pkg.OutcomeView{Kind: string(o.kind), Demo: o.kind == OutcomeDemoDelivered}
	if o.kind == OutcomeFailed {
		view.Error = o.text
	} else {
		view.Message = o.text
	}
	return view
}
