package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderOption configures [InitProvider].
type ProviderOption func(*providerConfig)

type providerConfig struct {
	serviceName    string
	serviceVersion string
	traceExporter  sdktrace.SpanExporter
}

// WithServiceName overrides the service name reported in telemetry.
// Default: "voxlex".
func WithServiceName(name string) ProviderOption {
	return func(c *providerConfig) { c.serviceName = name }
}

// WithServiceVersion sets the service version reported in telemetry.
func WithServiceVersion(version string) ProviderOption {
	return func(c *providerConfig) { c.serviceVersion = version }
}

// WithTraceExporter sets a span exporter. Without one, spans are recorded
// but never leave the process, which is all the correlation-ID and log
// enrichment paths need. An OTLP exporter slots in here when a collector
// exists.
func WithTraceExporter(exp sdktrace.SpanExporter) ProviderOption {
	return func(c *providerConfig) { c.traceExporter = exp }
}

// InitProvider wires up the OpenTelemetry SDK for serve mode: a meter
// provider backed by a Prometheus exporter (scraped through the /metrics
// route) and a tracer provider, both registered globally so
// [DefaultMetrics], [StartSpan] and [Logger] pick them up.
//
// The returned shutdown function flushes and closes both providers; call it
// in a defer from main().
func InitProvider(ctx context.Context, opts ...ProviderOption) (func(context.Context) error, error) {
	cfg := providerConfig{serviceName: "voxlex"}
	for _, o := range opts {
		o(&cfg)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.traceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.traceExporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}
	return shutdown, nil
}
