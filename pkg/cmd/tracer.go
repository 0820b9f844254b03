package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/stepwise/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer returns an OTLP tracer when enabled and a noop tracer otherwise.
// The returned shutdown function is always safe to call.
func NewTracer(ctx context.Context, logger *slog.Logger, enabled bool, serviceName string) (trace.Tracer, otelhelper.ShutdownFunc) {
	noopShutdown := func(context.Context) error { return nil }

	if !enabled {
		return otelhelper.NewNoopTracer(), noopShutdown
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "tracing disabled, exporter could not be created", "error", err)

		return otelhelper.NewNoopTracer(), noopShutdown
	}

	logger.InfoContext(ctx, "tracing enabled", "service", serviceName)

	return tracer, shutdown
}
