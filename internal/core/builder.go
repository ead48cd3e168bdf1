package core

import (
	"fmt"
	"strings"
)

// ValidationError reports a form that cannot be submitted. Nothing is
// dispatched or counted for it.
type ValidationError struct {
	Workflow WorkflowID
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Workflow, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Workflow, e.Field, e.Message)
}

// Validate checks required fields, choice options and number ranges. It
// must pass before BuildInstruction is called.
func Validate(id WorkflowID, in Values) error {
	def, err := Lookup(id)
	if err != nil {
		return err
	}
	v := def.normalize(in)
	for _, f := range def.Fields {
		switch {
		case f.Required && !v.Has(f.Name):
			return &ValidationError{Workflow: id, Field: f.Name, Message: "is required"}
		case f.Kind == KindChoice && v.Has(f.Name) && len(f.Options) > 0 && !contains(f.Options, v.Text(f.Name)):
			return &ValidationError{Workflow: id, Field: f.Name, Message: fmt.Sprintf("unsupported value %q", v.Text(f.Name))}
		case f.Kind == KindNumber && v.Has(f.Name):
			n, ok := v.Int(f.Name)
			if !ok {
				return &ValidationError{Workflow: id, Field: f.Name, Message: "must be a whole number"}
			}
			if n < f.Min || n > f.Max {
				return &ValidationError{Workflow: id, Field: f.Name, Message: fmt.Sprintf("must be between %d and %d", f.Min, f.Max)}
			}
		}
	}
	if len(def.AnyOf) > 0 {
		for _, name := range def.AnyOf {
			if v.Has(name) {
				return nil
			}
		}
		return &ValidationError{Workflow: id, Message: "one of " + strings.Join(def.AnyOf, ", ") + " is required"}
	}
	return nil
}

// BuildInstruction assembles the backend instruction for a validated form.
// It depends on nothing but its arguments: the same input always yields the
// same instruction.
func BuildInstruction(id WorkflowID, in Values) (string, error) {
	def, err := Lookup(id)
	if err != nil {
		return "", err
	}
	v := def.normalize(in)

	var parts []string
	if def.Lead != nil {
		parts = append(parts, def.Lead(v)...)
	}
	for _, slot := range def.Directives {
		if slot.Active(v) {
			parts = append(parts, slot.Render(v))
		}
	}
	if def.Profile != nil {
		parts = append(parts, def.Profile(v)...)
	}
	if def.Closing != "" {
		parts = append(parts, def.Closing)
	}
	for _, c := range def.Context {
		if text := v.Trimmed(c.Field); text != "" {
			parts = append(parts, c.Label+": "+text)
		}
	}
	return strings.Join(parts, def.Separator), nil
}

// MetaFor returns the dispatch extras of a form: file flags for document
// workflows, the location for facility search.
func MetaFor(id WorkflowID, in Values) (Meta, error) {
	def, err := Lookup(id)
	if err != nil {
		return Meta{}, err
	}
	if def.Meta == nil {
		return Meta{}, nil
	}
	return def.Meta(def.normalize(in)), nil
}

// ProgressSteps returns the cosmetic progress labels of a form.
func ProgressSteps(id WorkflowID, in Values) ([]string, error) {
	def, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	if def.Progress == nil {
		return nil, nil
	}
	return def.Progress(def.normalize(in)), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
