package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with invocation-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a tool invocation.
	StartSpan(ctx context.Context, tool string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span named tool.invoke.<tool>.
func (t *tracerImpl) StartSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tool.invoke."+tool,
		trace.WithAttributes(
			attribute.String("tool.name", tool),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that records nothing.
type noopTracer struct {
	tracer trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return newNoopTracer()
}

func (t *noopTracer) StartSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, tool)
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}

// Ensure implementations satisfy Tracer
var (
	_ Tracer = (*tracerImpl)(nil)
	_ Tracer = (*noopTracer)(nil)
)
