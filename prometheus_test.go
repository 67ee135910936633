package meterhub

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusBackend(t *testing.T) {
	prometheusRegistry := prometheus.NewRegistry()
	backend := NewPrometheusBackend(prometheusRegistry, "test")
	registry := NewRegistry(backend, Config{})

	counter := registry.NewCounter("requests.total", Tags{"route": "/x"})
	counter.Add(3)
	require.EqualValues(t, 3, counter.Count())

	timer := registry.NewTimer("latency", nil)
	timer.Record(5 * time.Millisecond)
	timer.Record(12 * time.Millisecond)
	require.EqualValues(t, 2, timer.Count())
	require.InDelta(t, 12, timer.Max(time.Millisecond), 0.001)
	require.InDelta(t, 8.5, timer.Mean(time.Millisecond), 0.001)

	gauge := registry.NewGauge("pool.size", nil)
	gauge.Set(4)

	families, err := prometheusRegistry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	require.True(t, names["test_requests_total"])
	require.True(t, names["test_latency"])
	require.True(t, names["test_pool_size"])

	require.InDelta(t, 4, testutil.ToFloat64(gaugeCollector(prometheusRegistry, "test_pool_size")), 0.001)
}

// gaugeCollector extracts a single registered collector's value by gathering
// the registry and wrapping the result for testutil.
func gaugeCollector(registry *prometheus.Registry, name string) prometheus.Collector {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: name})
	families, err := registry.Gather()
	if err != nil {
		return gauge
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if metric.GetGauge() != nil {
				gauge.Set(metric.GetGauge().GetValue())
			}
		}
	}

	return gauge
}

func TestPrometheusBackendDuplicates(t *testing.T) {
	prometheusRegistry := prometheus.NewRegistry()
	backend := NewPrometheusBackend(prometheusRegistry, "test")

	_, err := backend.NewCounter(NewID("requests", KindCounter, nil))
	require.NoError(t, err)

	// same collector registered twice is an error, not a panic
	_, err = backend.NewCounter(NewID("requests", KindCounter, nil))
	require.Error(t, err)
}
