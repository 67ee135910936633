package meterhub

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewPrometheusRegistry creates a prometheus registry preloaded with the
// standard Go and process collectors.
func NewPrometheusRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return registry
}

// PrometheusBackend realizes instruments as prometheus collectors: counters
// as prometheus counters, timers as histograms observing seconds, gauges as
// gauge funcs. Tags become constant labels. Duplicate collector registration
// is surfaced as an error instead of a panic.
type PrometheusBackend struct {
	registry  *prometheus.Registry
	namespace string
}

// NewPrometheusBackend creates the backend over an existing prometheus
// registry.
func NewPrometheusBackend(registry *prometheus.Registry, namespace string) *PrometheusBackend {
	return &PrometheusBackend{registry: registry, namespace: namespace}
}

func (source *PrometheusBackend) NewCounter(id ID) (CounterHandle, error) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   source.namespace,
		Name:        getPrometheusMetricName(id.Name),
		Help:        id.Description,
		ConstLabels: prometheus.Labels(id.Tags),
	})
	if err := source.registry.Register(counter); err != nil {
		return nil, fmt.Errorf("can't register counter %s: %w", id, err)
	}

	return &prometheusCounter{counter: counter}, nil
}

func (source *PrometheusBackend) NewTimer(id ID) (TimerHandle, error) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   source.namespace,
		Name:        getPrometheusMetricName(id.Name),
		Help:        id.Description,
		ConstLabels: prometheus.Labels(id.Tags),
	})
	if err := source.registry.Register(histogram); err != nil {
		return nil, fmt.Errorf("can't register timer %s: %w", id, err)
	}

	return &prometheusTimer{histogram: histogram}, nil
}

func (source *PrometheusBackend) NewGauge(id ID, valueSource func() float64) (GaugeHandle, error) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   source.namespace,
		Name:        getPrometheusMetricName(id.Name),
		Help:        id.Description,
		ConstLabels: prometheus.Labels(id.Tags),
	}, valueSource)
	if err := source.registry.Register(gauge); err != nil {
		return nil, fmt.Errorf("can't register gauge %s: %w", id, err)
	}

	return &prometheusGauge{source: valueSource}, nil
}

func getPrometheusMetricName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

type prometheusCounter struct {
	counter prometheus.Counter
	count   int64
}

func (source *prometheusCounter) Increment(delta int64) {
	source.counter.Add(float64(delta))
	atomic.AddInt64(&source.count, delta)
}

func (source *prometheusCounter) Count() int64 {
	return atomic.LoadInt64(&source.count)
}

// prometheusTimer observes seconds into the histogram and keeps shadow
// aggregates so the timer's own statistics stay answerable without scraping.
type prometheusTimer struct {
	histogram prometheus.Histogram
	count     int64
	total     int64
	max       int64
}

func (source *prometheusTimer) Record(duration time.Duration) {
	source.histogram.Observe(duration.Seconds())
	nanos := duration.Nanoseconds()
	atomic.AddInt64(&source.count, 1)
	atomic.AddInt64(&source.total, nanos)
	for {
		max := atomic.LoadInt64(&source.max)
		if nanos <= max || atomic.CompareAndSwapInt64(&source.max, max, nanos) {
			break
		}
	}
}

func (source *prometheusTimer) Stats() TimerStats {
	return TimerStats{
		Count:      atomic.LoadInt64(&source.count),
		TotalNanos: float64(atomic.LoadInt64(&source.total)),
		MaxNanos:   float64(atomic.LoadInt64(&source.max)),
	}
}

type prometheusGauge struct {
	source func() float64
}

func (source *prometheusGauge) Value() float64 {
	return source.source()
}
