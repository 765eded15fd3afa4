// Package telemetry wires up the OpenTelemetry tracer provider that
// `serve --otel` installs, the same way cmd/root/otel.go configures
// tracing for the teacher's agent runtime. The processor and
// reconciler start no spans.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nexuslabs-ai/context-engine-sub000"

// Setup installs a tracer provider. No exporter is attached, so spans
// are cheap no-ops rather than a conditional sprinkled through call
// sites.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		slog.Warn("telemetry: failed to build resource, using default", "error", err)
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the package-wide tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan is a small convenience wrapper so call sites don't need to
// import both "go.opentelemetry.io/otel" and the trace package.
func StartSpan(ctx context.Context, name string, attrs ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, attrs...)
}
