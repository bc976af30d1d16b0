package opentelemetry

import (
	"context"
	"fmt"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"os"
)

const (
	instrumentationName = "github.com/cirruslabs/asyncoss"

	RequestsCounterName = "org.cirruslabs.asyncoss.requests.total"
)

// DefaultMeter forwards to whatever MeterProvider is installed globally,
// so instruments created before Init() start reporting once it's called.
//
//nolint:gochecknoglobals // mirrors otel.Meter() semantics
var DefaultMeter = otel.Meter(instrumentationName)

type Option func(options *options)

type options struct {
	metricReader sdkmetric.Reader
	spanExporter sdktrace.SpanExporter
}

// WithMetricReader overrides the metric reader configured
// through the OTEL_METRICS_EXPORTER environment variable.
func WithMetricReader(metricReader sdkmetric.Reader) Option {
	return func(options *options) {
		options.metricReader = metricReader
	}
}

// WithSpanExporter overrides the span exporter configured
// through the OTEL_TRACES_EXPORTER environment variable.
func WithSpanExporter(spanExporter sdktrace.SpanExporter) Option {
	return func(options *options) {
		options.spanExporter = spanExporter
	}
}

// Init installs the global meter and tracer providers.
//
// Exporting is opt-in: metrics and spans are only exported when
// OTEL_METRICS_EXPORTER and OTEL_TRACES_EXPORTER are set (e.g. to "otlp",
// "console" or "prometheus"), in which case the rest of the standard
// OTEL_EXPORTER_* variables apply.
func Init(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, func(), error) {
	options := &options{}

	for _, opt := range opts {
		opt(options)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName("asyncoss"),
	))
	if err != nil {
		return nil, nil, err
	}

	metricReader := options.metricReader
	if metricReader == nil {
		metricReader, err = newMetricReader(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	spanExporter := options.spanExporter
	if spanExporter == nil {
		spanExporter, err = newSpanExporter(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	meterProviderOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if metricReader != nil {
		meterProviderOpts = append(meterProviderOpts, sdkmetric.WithReader(metricReader))
	}

	meterProvider := sdkmetric.NewMeterProvider(meterProviderOpts...)
	otel.SetMeterProvider(meterProvider)

	tracerProviderOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if spanExporter != nil {
		tracerProviderOpts = append(tracerProviderOpts, sdktrace.WithBatcher(spanExporter))
	}

	tracerProvider := sdktrace.NewTracerProvider(tracerProviderOpts...)
	otel.SetTracerProvider(tracerProvider)

	deinit := func() {
		//nolint:contextcheck // the parent context might be already canceled at this point
		shutdownCtx := context.WithoutCancel(ctx)

		// Shutdown also flushes whatever is still buffered
		_ = tracerProvider.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
	}

	return meterProvider, deinit, nil
}

// NewRequestCounter creates the object storage request counter on the
// meterProvider, or on DefaultMeter when meterProvider is nil.
func NewRequestCounter(meterProvider metric.MeterProvider) (metric.Int64Counter, error) {
	meter := DefaultMeter

	if meterProvider != nil {
		meter = meterProvider.Meter(instrumentationName)
	}

	return meter.Int64Counter(RequestsCounterName,
		metric.WithDescription("Number of object storage requests performed"))
}

func newMetricReader(ctx context.Context) (sdkmetric.Reader, error) {
	if !exporterConfigured("OTEL_METRICS_EXPORTER") {
		return nil, nil
	}

	metricReader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric reader: %w", err)
	}

	return metricReader, nil
}

func newSpanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if !exporterConfigured("OTEL_TRACES_EXPORTER") {
		return nil, nil
	}

	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}

	return spanExporter, nil
}

func exporterConfigured(name string) bool {
	value := os.Getenv(name)

	return value != "" && value != "none"
}
