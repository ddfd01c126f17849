package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Span is a wrapper around a [trace.Span] that tracks in-flight operations.
type Span struct {
	ctx      context.Context
	span     trace.Span
	op       Attr
	recorder *Recorder
}

// StartSpan starts a new span and records the operation in the "operations"
// and "operations.in_flight" metrics.
//
// The returned context carries the new span.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	ctx, span := r.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	op := String("operation", name)
	r.operationCount(ctx, 1, op)
	r.operationsInFlightCount(ctx, 1, op)

	return ctx, &Span{ctx, span, op, r}
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	s.span.SetAttributes(asAttrKeyValues(attrs)...)
}

// End completes the span.
func (s *Span) End() {
	s.recorder.operationsInFlightCount(s.ctx, -1, s.op)
	s.span.End()
}
