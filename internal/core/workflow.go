package core

import (
	"errors"
	"fmt"
	"strings"
)

// WorkflowID names one navigation state of a consultation session: the
// dashboard or one of the six consultation workflows.
type WorkflowID string

const (
	Dashboard           WorkflowID = "dashboard"
	QnA                 WorkflowID = "qna"
	ReportAnalyzer      WorkflowID = "report_analyzer"
	FacilityFinder      WorkflowID = "facility_finder"
	MedicationExplainer WorkflowID = "medication_explainer"
	BillAuditor         WorkflowID = "bill_auditor"
	SymptomChecker      WorkflowID = "symptom_checker"
)

// ErrUnknownWorkflow is returned for ids outside the catalog, and for the
// dashboard where a submittable workflow is required.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// States lists every navigation state in dashboard order.
func States() []WorkflowID {
	return []WorkflowID{Dashboard, QnA, ReportAnalyzer, FacilityFinder, MedicationExplainer, BillAuditor, SymptomChecker}
}

// ParseWorkflow resolves an id case-insensitively. Hyphens are accepted in
// place of underscores.
func ParseWorkflow(s string) (WorkflowID, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, id := range States() {
		if string(id) == norm {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWorkflow, s)
}

// Submittable reports whether the state is a consultation workflow rather
// than the dashboard.
func (id WorkflowID) Submittable() bool {
	_, ok := catalog[id]
	return ok
}

func (id WorkflowID) String() string { return string(id) }
