package opentelemetry_test

import (
	"context"
	"github.com/cirruslabs/asyncoss/internal/opentelemetry"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"testing"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	// Created before Init() to make sure it gets bound afterwards
	counter, err := opentelemetry.NewRequestCounter(nil)
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()

	_, opentelemetryDeinit, err := opentelemetry.Init(ctx, opentelemetry.WithMetricReader(reader))
	require.NoError(t, err)
	defer opentelemetryDeinit()

	counter.Add(ctx, 2)
	counter.Add(ctx, 1)

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &resourceMetrics))

	var total int64

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, metrics := range scopeMetrics.Metrics {
			if metrics.Name != opentelemetry.RequestsCounterName {
				continue
			}

			sum, ok := metrics.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dataPoint := range sum.DataPoints {
				total += dataPoint.Value
			}
		}
	}

	require.EqualValues(t, 3, total)
}
