// Package otel wires OpenTelemetry tracing for dreamtides processes.
//
// The client records one span per engine call ("engine.connect",
// "engine.perform_action", "engine.poll", "engine.log") with the transport
// mode and request id as attributes. Loopback calls carry the span context
// to the engine in W3C traceparent headers so engine-side work joins the
// client trace.
package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EnvEndpoint names the OTLP/HTTP collector endpoint variable.
	EnvEndpoint = "DREAMTIDES_OTEL_ENDPOINT"
	// EnvEnabled can force tracing off even when an endpoint is set.
	EnvEnabled = "DREAMTIDES_OTEL_ENABLED"
	// EnvSampleRatio sets the fraction of root traces kept, 0 to 1.
	EnvSampleRatio = "DREAMTIDES_OTEL_SAMPLE_RATIO"
)

// Setup registers the trace-context propagator and, when an endpoint is
// configured, a batching OTLP/HTTP tracer provider for serviceName. The
// returned shutdown flushes pending spans; it is a no-op when tracing is
// off.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if strings.EqualFold(os.Getenv(EnvEnabled), "false") {
		return noop, nil
	}
	endpoint := strings.TrimSpace(os.Getenv(EnvEndpoint))
	if endpoint == "" {
		return noop, nil
	}
	sampler, err := Sampler(os.Getenv(EnvSampleRatio))
	if err != nil {
		return noop, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Sampler parses a sample ratio. Empty keeps every trace. Child spans
// follow their parent's decision.
func Sampler(ratio string) (sdktrace.Sampler, error) {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	}
	value, err := strconv.ParseFloat(ratio, 64)
	if err != nil || value < 0 || value > 1 {
		return nil, fmt.Errorf("%s must be a number between 0 and 1, got %q", EnvSampleRatio, ratio)
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(value)), nil
}
