package core

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"chronocheck/internal/llm"
	"chronocheck/pkg"
)

// Operation names the backend operation a workflow targets.
type Operation string

const (
	OpGeneralQuery      Operation = "general_query"
	OpAnalyzeDocument   Operation = "analyze_document"
	OpSearchFacilities  Operation = "search_facilities"
	OpExplainMedication Operation = "explain_medication"
	OpAuditBill         Operation = "audit_bill"
)

// Meta carries the workflow-specific extras sent with an instruction.
type Meta struct {
	FileUploaded bool
	FileName     string
	Location     string
}

var tracer = otel.Tracer("chronocheck/core")

// Dispatcher sends one instruction to the backend operation of a workflow.
// It never retries and imposes no timeout of its own.
type Dispatcher struct {
	Backend llm.Backend
	Tokens  *llm.TokenCounter
	Logger  *slog.Logger
}

// NewDispatcher constructs a Dispatcher. tokens may be nil.
func NewDispatcher(backend llm.Backend, tokens *llm.TokenCounter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{Backend: backend, Tokens: tokens, Logger: logger}
}

// Dispatch performs exactly one backend call. Transport errors are folded
// into a failed APIResult so the interpreter stays the only classifier.
func (d *Dispatcher) Dispatch(ctx context.Context, id WorkflowID, instruction string, meta Meta) pkg.APIResult {
	def, err := Lookup(id)
	if err != nil {
		return pkg.APIResult{Success: false, Error: pkg.Text(err.Error())}
	}

	ctx, span := tracer.Start(ctx, "dispatch "+string(def.Operation))
	defer span.End()
	span.SetAttributes(
		attribute.String("workflow", string(id)),
		attribute.String("operation", string(def.Operation)),
		attribute.Int("instruction.chars", len(instruction)),
		attribute.Bool("file.uploaded", meta.FileUploaded),
	)
	attrs := []any{
		slog.String("workflow", string(id)),
		slog.String("operation", string(def.Operation)),
	}
	if d.Tokens != nil {
		if n, err := d.Tokens.Count(instruction); err == nil {
			span.SetAttributes(attribute.Int("instruction.tokens", n))
			attrs = append(attrs, slog.Int("instruction_tokens", n))
		}
	}

	start := time.Now()
	raw, err := d.call(ctx, def.Operation, instruction, meta)
	attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.Logger.Warn("backend call failed", append(attrs, slog.String("error", err.Error()))...)
		return pkg.APIResult{Success: false, Error: pkg.Text(err.Error())}
	}
	d.Logger.Info("backend call completed", append(attrs, slog.Bool("success", raw.Success), slog.Bool("demo", raw.DemoMode))...)
	return raw
}

func (d *Dispatcher) call(ctx context.Context, op Operation, instruction string, meta Meta) (pkg.APIResult, error) {
	switch op {
	case OpAnalyzeDocument:
		return d.Backend.AnalyzeDocument(ctx, instruction, meta.FileUploaded, meta.FileName)
	case OpSearchFacilities:
		return d.Backend.SearchFacilities(ctx, instruction, meta.Location)
	case OpExplainMedication:
		return d.Backend.ExplainMedication(ctx, instruction, meta.FileUploaded, meta.FileName)
	case OpAuditBill:
		return d.Backend.AuditBill(ctx, instruction, meta.FileUploaded, meta.FileName)
	default:
		return d.Backend.GeneralQuery(ctx, instruction)
	}
}
