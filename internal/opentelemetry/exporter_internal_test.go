package opentelemetry

import (
	"context"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestExportersAreOptIn(t *testing.T) {
	ctx := context.Background()

	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")

	metricReader, err := newMetricReader(ctx)
	require.NoError(t, err)
	require.Nil(t, metricReader)

	spanExporter, err := newSpanExporter(ctx)
	require.NoError(t, err)
	require.Nil(t, spanExporter)
}

func TestExportersFromEnvironment(t *testing.T) {
	ctx := context.Background()

	t.Setenv("OTEL_METRICS_EXPORTER", "console")
	t.Setenv("OTEL_TRACES_EXPORTER", "console")

	metricReader, err := newMetricReader(ctx)
	require.NoError(t, err)
	require.NotNil(t, metricReader)
	_ = metricReader.Shutdown(ctx)

	spanExporter, err := newSpanExporter(ctx)
	require.NoError(t, err)
	require.NotNil(t, spanExporter)
	_ = spanExporter.Shutdown(ctx)
}
