package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Options controls where spans go and how many are kept. A nil Writer
// means stderr, which leaves stdout to the JSON log lines. SampleRatio is
// the fraction of root traces kept.
type Options struct {
	ServiceName string
	Writer      io.Writer
	Pretty      bool
	SampleRatio float64
}

// InitTracer installs a global tracer provider exporting spans as JSON. The
// returned function flushes and stops it.
func InitTracer(opts Options, logger *slog.Logger) (func(context.Context) error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	exportOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if opts.Pretty {
		exportOpts = append(exportOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exportOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName(opts.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled",
		slog.String("service", opts.ServiceName),
		slog.Float64("sample_ratio", opts.SampleRatio),
	)
	return tp.Shutdown, nil
}
