package services

import (
	"context"
	"log/slog"

	"github.com/dukex/stepwise/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// instrumentation is shared by the services: one span per operation and a
// log line for every error returned.
type instrumentation struct {
	tracer trace.Tracer
	logger *slog.Logger
}

// nolint:spancheck // callers end the span
func (i instrumentation) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otelhelper.StartSpan(ctx, i.tracer, op, attrs...)
}

// fail records err on span and logs it with op. Client errors log at warn level.
func (i instrumentation) fail(ctx context.Context, span trace.Span, op string, err error, args ...any) error {
	otelhelper.SetError(span, err, attribute.String("op", op))

	level := slog.LevelError
	if IsValidationError(err) || IsNotFoundError(err) || IsConflictError(err) {
		level = slog.LevelWarn
	}

	i.logger.Log(ctx, level, "operation failed", append([]any{"op", op, "error", err}, args...)...)

	return err
}
