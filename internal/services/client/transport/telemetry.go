package transport

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/dreamtides/internal/services/client/transport"

func startSpan(ctx context.Context, mode Mode, op Operation, requestID *uuid.UUID) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("dreamtides.transport", string(mode)),
		attribute.String("dreamtides.operation", string(op)),
	}
	if requestID != nil {
		attrs = append(attrs, attribute.String("dreamtides.request_id", requestID.String()))
	}
	return otel.Tracer(tracerName).Start(ctx, "engine."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, Outcome(err))
	}
	span.End()
}
