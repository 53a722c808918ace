// Package telemetry sets up OpenTelemetry tracing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config configures trace export.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector address (host:port).
	Endpoint string `yaml:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool   `yaml:"insecure"`
	// SampleRatio is the fraction of traces kept, between 0 and 1.
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `yaml:"service_name"`
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup returns a tracer provider for cfg. When tracing is disabled the
// provider is a no-op and the shutdown function does nothing.
func Setup(ctx context.Context, cfg Config, version string, logger *slog.Logger) (trace.TracerProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}
	if cfg.Endpoint == "" {
		return nil, nil, errors.New("telemetry: endpoint is required when tracing is enabled")
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	tp := newProvider(sdktrace.WithBatcher(exporter), cfg, version)
	logger.Info("tracing enabled", "endpoint", cfg.Endpoint, "sample_ratio", cfg.SampleRatio)
	return tp, tp.Shutdown, nil
}

func newProvider(processor sdktrace.TracerProviderOption, cfg Config, version string) *sdktrace.TracerProvider {
	name := cfg.ServiceName
	if name == "" {
		name = "sealdrop"
	}
	ratio := cfg.SampleRatio
	if ratio == 0 {
		ratio = 1
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("service.version", version),
	)
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
}
