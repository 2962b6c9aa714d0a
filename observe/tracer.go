package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var nopTracer = tracenoop.NewTracerProvider().Tracer("noop")

// StartSpan starts an internal span for a toolkit operation. Span names
// follow the pattern <component>.<op>, e.g. "recovery.fetch_user". A nil
// tracer yields a recording no-op span, so callers never branch.
func StartSpan(ctx context.Context, tracer trace.Tracer, component, op string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = nopTracer
	}
	return tracer.Start(ctx, component+"."+op,
		trace.WithAttributes(
			attribute.String("toolkit.component", component),
			attribute.String("toolkit.op", op),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan records err on the span and ends it. Safe on a nil span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
