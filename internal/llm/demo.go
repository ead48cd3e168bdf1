package llm

import (
	"context"
	"fmt"
	"log/slog"

	"chronocheck/pkg"
)

// SampleAuditReport is the representative bill audit shown when no real
// audit could be produced.
const SampleAuditReport = `Medical Billing Audit Report

| Bill Item | Billed Price (₹) | Standard/Ref Price (₹) | Potential Overcharge (₹) | Auditor's Expert Analysis |
| :--- | :--- | :--- | :--- | :--- |
| Emergency Room Consultation | ₹800.00 | ₹800.00 | ₹0.00 | Charged fairly |
| Complete Blood Count (CBC) | ₹1,200.00 | ₹1,200.00 | ₹0.00 | Charged fairly |
| Laparoscopic Appendectomy | ₹35,000.00 | ₹30,000.00 | ₹5,000.00 | Potential overcharge |
| Laparoscopic Equipment Fee | ₹5,000.00 | Included in Surgery | ₹0.00 | Double-billed item |
| Inj. Pantoprazole | ₹135.00 | ₹160.00 | ₹25.00 | Price discrepancy |

**Total Potential Overcharge: ₹5,025.00**

**Recommendation:** Request a reduction of ₹5,025.00 from hospital TPA or management.`

// demoUnavailable is the error text carried by demo replies.
const demoUnavailable = "API unavailable"

// DemoBackend answers without any AI service. Text workflows echo what
// would have been asked; the bill audit returns the sample report as a
// demo fallback.
type DemoBackend struct{}

func (DemoBackend) GeneralQuery(ctx context.Context, instruction string) (pkg.APIResult, error) {
	return delivered(fmt.Sprintf("**Answer:** This would come from the Q&A model.\n\nQuestion: %s", instruction)), nil
}

func (DemoBackend) AnalyzeDocument(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	if fileUploaded {
		return delivered(fmt.Sprintf("**Report Analysis:** Analysis for uploaded file: %s\n\nAI analysis of your medical report.\n\nMessage: %s", fileName, instruction)), nil
	}
	return delivered("**Report Analysis:** " + instruction), nil
}

func (DemoBackend) SearchFacilities(ctx context.Context, instruction string, location string) (pkg.APIResult, error) {
	if location == "" {
		location = "your area"
	}
	return delivered(fmt.Sprintf("**Hospital Recommendations:**\n\nLooking for: %s in %s", instruction, location)), nil
}

func (DemoBackend) ExplainMedication(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	if fileUploaded {
		return delivered(fmt.Sprintf("**Medicine Explanation:** Analysis for uploaded file: %s\n\nAI analysis of your prescription.\n\nMessage: %s", fileName, instruction)), nil
	}
	return delivered("**Medicine Explanation:** " + instruction), nil
}

func (DemoBackend) AuditBill(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	return demoAudit(demoUnavailable), nil
}

func delivered(msg string) pkg.APIResult {
	return pkg.APIResult{Success: true, Message: pkg.Text(msg)}
}

func demoAudit(reason string) pkg.APIResult {
	return pkg.APIResult{
		Success:  false,
		Error:    pkg.Text(reason),
		Message:  pkg.Text(SampleAuditReport),
		DemoMode: true,
	}
}

// DemoFallback wraps a real backend so that a failed bill audit still
// surfaces the sample report, flagged as demo content. Every other
// operation passes straight through.
type DemoFallback struct {
	Backend
	Logger *slog.Logger
}

// WithDemoFallback wraps b.
func WithDemoFallback(b Backend, logger *slog.Logger) *DemoFallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &DemoFallback{Backend: b, Logger: logger}
}

func (d *DemoFallback) AuditBill(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error) {
	res, err := d.Backend.AuditBill(ctx, instruction, fileUploaded, fileName)
	var reason string
	switch {
	case err != nil:
		reason = err.Error()
	case !res.Success && res.Message == nil:
		reason = "Unknown error"
		if res.Error != nil {
			reason = *res.Error
		}
	default:
		return res, nil
	}
	d.Logger.Warn("bill audit failed, serving demo report", slog.String("error", reason))
	return demoAudit(reason), nil
}
