package svc

import (
	"context"
	"fmt"

	"github.com/ze-tech/passbold/internal/buildconfig"
	"github.com/ze-tech/passbold/internal/env"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Tracers struct {
	provider trace.TracerProvider
	shutdown func(ctx context.Context) error
}

// Always returns a provider that is never nil; when the OTLP exporter is
// disabled it is a noop provider.
func (t *Tracers) Always() trace.TracerProvider { return t.provider }

func (t *Tracers) Shutdown(ctx context.Context) error {
	if t.shutdown != nil {
		return t.shutdown(ctx)
	}
	return nil
}

func newTracers(ctx context.Context) (*Tracers, error) {
	if !env.OtelExporterOtlpEnabled() {
		return &Tracers{provider: noop.NewTracerProvider()}, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("passbold"),
		semconv.ServiceVersion(buildconfig.Version()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return &Tracers{provider: provider, shutdown: provider.Shutdown}, nil
}
