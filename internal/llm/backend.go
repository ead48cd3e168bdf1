package llm

import (
	"context"

	"chronocheck/pkg"
)

// Backend is the AI inference service behind the consultation tools. Each
// operation returns the backend's raw reply; a non-nil error means the call
// itself failed (transport, auth, rate limit).
type Backend interface {
	GeneralQuery(ctx context.Context, instruction string) (pkg.APIResult, error)
	AnalyzeDocument(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error)
	SearchFacilities(ctx context.Context, instruction string, location string) (pkg.APIResult, error)
	ExplainMedication(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error)
	AuditBill(ctx context.Context, instruction string, fileUploaded bool, fileName string) (pkg.APIResult, error)
}
