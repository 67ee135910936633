package meterhub

import (
	"testing"
	"time"

	goMetrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func TestGoMetricsBackend(t *testing.T) {
	backend := NewGoMetricsBackend()
	registry := NewRegistry(backend, Config{})

	counter := registry.NewCounter("requests.total", Tags{"route": "/x"})
	counter.Add(3)
	require.EqualValues(t, 3, counter.Count())

	timer := registry.NewTimer("latency", nil)
	timer.Record(5 * time.Millisecond)
	timer.Record(12 * time.Millisecond)
	require.EqualValues(t, 2, timer.Count())
	require.InDelta(t, 12, timer.Max(time.Millisecond), 0.001)
	require.InDelta(t, 17, timer.TotalTime(time.Millisecond), 0.001)

	gauge := registry.NewGauge("pool.size", nil)
	gauge.Set(4)
	require.EqualValues(t, 4, gauge.Value())

	// tags are flattened into the hierarchical path
	raw := backend.GoMetricsRegistry().Get("requests_total.route__x")
	require.NotNil(t, raw)
	require.IsType(t, goMetrics.NewCounter(), raw)
}

func TestHierarchicalName(t *testing.T) {
	id := NewID("http.requests", KindCounter, Tags{"route": "/x", "env": "prod"})
	require.Equal(t, "http_requests.env_prod.route__x", hierarchicalName(id))

	require.Equal(t, "latency", hierarchicalName(NewID("latency", KindTimer, nil)))
}

func TestNewGraphiteBackend(t *testing.T) {
	// disabled config must not try to resolve the relay address
	backend, err := NewGraphiteBackend(GraphiteBackendConfig{Enabled: false, URI: "not a uri"}, "test")
	require.NoError(t, err)
	require.NotNil(t, backend)

	_, err = NewGraphiteBackend(GraphiteBackendConfig{
		Enabled:  true,
		URI:      "not a uri",
		Interval: time.Minute,
	}, "test")
	require.Error(t, err)
}

func TestInitPrefix(t *testing.T) {
	prefix, err := initPrefix("apps.production")
	require.NoError(t, err)
	require.Equal(t, "apps.production", prefix)

	prefix, err = initPrefix("apps.{hostname}")
	require.NoError(t, err)
	require.NotContains(t, prefix, hostnameTmpl)
	require.NotEqual(t, "apps.", prefix)
}
