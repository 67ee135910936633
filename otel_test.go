package meterhub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkMetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectOtel(t *testing.T, reader *sdkMetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	collected := make(map[string]metricdata.Metrics)
	for _, scope := range resourceMetrics.ScopeMetrics {
		for _, metric := range scope.Metrics {
			collected[metric.Name] = metric
		}
	}

	return collected
}

func TestOtelBackend(t *testing.T) {
	reader := sdkMetric.NewManualReader()
	provider := sdkMetric.NewMeterProvider(sdkMetric.WithReader(reader))
	defer func() {
		require.NoError(t, provider.Shutdown(context.Background()))
	}()

	backend := NewOtelBackend(provider)
	registry := NewRegistry(backend, Config{})

	counter := registry.NewCounter("requests", Tags{"route": "/x"})
	counter.Add(10)
	require.EqualValues(t, 10, counter.Count())

	timer := registry.NewTimer("latency", nil)
	timer.Record(5 * time.Millisecond)
	timer.Record(12 * time.Millisecond)
	require.EqualValues(t, 2, timer.Count())
	require.InDelta(t, 12, timer.Max(time.Millisecond), 0.001)

	gauge := registry.NewGauge("pool.size", nil)
	gauge.Set(4)

	collected := collectOtel(t, reader)

	requests, ok := collected["requests"]
	require.True(t, ok, "counter should be exported")
	sum, ok := requests.Data.(metricdata.Sum[int64])
	require.True(t, ok, "counter data should be Sum[int64]")
	require.Len(t, sum.DataPoints, 1)
	require.EqualValues(t, 10, sum.DataPoints[0].Value)
	require.Equal(t, 1, sum.DataPoints[0].Attributes.Len())

	latency, ok := collected["latency"]
	require.True(t, ok, "timer should be exported")
	histogram, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "timer data should be Histogram[float64]")
	require.Len(t, histogram.DataPoints, 1)
	require.EqualValues(t, 2, histogram.DataPoints[0].Count)
	require.InDelta(t, 0.017, histogram.DataPoints[0].Sum, 0.0001)

	poolSize, ok := collected["pool.size"]
	require.True(t, ok, "gauge should be exported")
	observed, ok := poolSize.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "gauge data should be Gauge[float64]")
	require.Len(t, observed.DataPoints, 1)
	require.InDelta(t, 4, observed.DataPoints[0].Value, 0.001)
}
