// Package tracing sets up the pipeline's tracer provider. Spans are emitted
// to the structured log rather than exported; an external collector is out of
// scope for this service.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type loggingSpanProcessor struct {
	verbose bool
	logger  *slog.Logger
}

var _ sdktrace.SpanProcessor = (*loggingSpanProcessor)(nil)

func (l *loggingSpanProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {
	l.logger.Debug("span start", l.buildArgs(s)...)
}

func (l *loggingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := append(l.buildArgs(s), slog.Duration("elapsed", s.EndTime().Sub(s.StartTime())))
	l.logger.Debug("span end", args...)
}

func (l *loggingSpanProcessor) Shutdown(ctx context.Context) error {
	return nil
}

func (l *loggingSpanProcessor) ForceFlush(ctx context.Context) error {
	return nil
}

func (l *loggingSpanProcessor) buildArgs(s sdktrace.ReadOnlySpan) []any {
	args := []any{
		slog.String("name", s.Name()),
	}
	for _, attr := range s.Attributes() {
		key := string(attr.Key)
		value := attr.Value.Emit()
		if !l.verbose && len(value) > 256 {
			continue
		}
		args = append(args, slog.String(key, value))
	}

	return args
}

// NewTracer installs a log-backed tracer provider and returns the service
// tracer.
func NewTracer(logger *slog.Logger, verbose bool) trace.Tracer {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&loggingSpanProcessor{verbose: verbose, logger: logger}),
	)
	otel.SetTracerProvider(provider)
	return provider.Tracer("counsel")
}
