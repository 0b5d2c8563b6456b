package analytics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "corrlens.analytics"

var tracer = otel.Tracer(tracerName)

// startAnalysisSpan opens an internal span covering one analysis run. With
// tracing disabled the global provider hands back a no-op span, so callers
// never need to branch.
func startAnalysisSpan(ctx context.Context, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "analysis."+kind,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("analysis.kind", kind),
		}, attrs...)...),
	)
}

// endAnalysisSpan closes the span with a status reflecting how the run ended
func endAnalysisSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
