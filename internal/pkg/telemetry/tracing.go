// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/samirrijal/peakview"

// Span names and attribute keys shared by the instrumented packages.
const (
	SpanPeakQuery     = "peaks.query"
	SpanViewshed      = "viewshed.compute"
	SpanElevation     = "elevation.lookup"
	SpanPeakProvider  = "peaks.fetch"
	AttrStrategy      = "peakview.strategy"
	AttrPeaks         = "peakview.peaks"
	AttrVisible       = "peakview.visible"
	AttrPoints        = "peakview.points"
	AttrRings         = "peakview.rings"
	AttrRadius        = "peakview.radius_m"
	AttrObserverLat   = "peakview.observer.lat"
	AttrObserverLon   = "peakview.observer.lon"
	AttrObserverAngle = "peakview.observer.heading"
)

// InitTracer installs a global tracer provider exporting spans over OTLP/gRPC
// to endpoint (e.g. "tempo:4317"). The returned func flushes and stops it.
func InitTracer(ctx context.Context, service, endpoint string) (func(), error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", service)))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}, nil
}

// Tracer returns the application tracer from the global provider. Without
// InitTracer it is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}
