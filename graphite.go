package meterhub

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	goMetricsGraphite "github.com/cyberdelia/go-metrics-graphite"
	goMetrics "github.com/rcrowley/go-metrics"
)

var nonAllowedMetricCharsRegex = regexp.MustCompile("[^a-zA-Z0-9_]")

// ReplaceNonAllowedMetricCharacters replaces non-allowed characters in the
// given metric path segment with underscores.
func ReplaceNonAllowedMetricCharacters(metric string) string {
	return nonAllowedMetricCharsRegex.ReplaceAllString(metric, "_")
}

const hostnameTmpl = "{hostname}"

// GraphiteBackendConfig configures the go-metrics backend and its optional
// graphite reporter.
type GraphiteBackendConfig struct {
	Enabled  bool
	URI      string
	Prefix   string
	Interval time.Duration
}

// GoMetricsBackend aggregates into a go-metrics registry. With a graphite
// reporter attached it flushes the registry to graphite on a fixed interval;
// without one it is a plain in-process backend.
//
// Tags are flattened into the hierarchical metric path: the name first, then
// key_value segments in key order.
type GoMetricsBackend struct {
	registry goMetrics.Registry
}

// NewGoMetricsBackend creates the backend without a reporter.
func NewGoMetricsBackend() *GoMetricsBackend {
	return &GoMetricsBackend{registry: goMetrics.NewRegistry()}
}

// NewGraphiteBackend creates the backend and, when enabled, starts a
// graphite reporter goroutine for it. The prefix may carry a {hostname}
// template resolved against the short OS hostname.
func NewGraphiteBackend(config GraphiteBackendConfig, serviceName string) (*GoMetricsBackend, error) {
	registry := goMetrics.NewRegistry()
	if config.Enabled {
		address, err := net.ResolveTCPAddr("tcp", config.URI)
		if err != nil {
			return nil, fmt.Errorf("can't resolve graphiteURI %s: %w", config.URI, err)
		}
		prefix, err := initPrefix(config.Prefix)
		if err != nil {
			return nil, fmt.Errorf("can't get OS hostname %s: %w", config.Prefix, err)
		}
		go goMetricsGraphite.Graphite(registry, config.Interval, getGraphiteMetricName([]string{prefix, serviceName}), address)
	}

	return &GoMetricsBackend{registry}, nil
}

// GoMetricsRegistry exposes the underlying go-metrics registry, e.g. for
// attaching additional reporters.
func (source *GoMetricsBackend) GoMetricsRegistry() goMetrics.Registry {
	return source.registry
}

func (source *GoMetricsBackend) NewCounter(id ID) (CounterHandle, error) {
	return &goMetricsCounter{goMetrics.GetOrRegisterCounter(hierarchicalName(id), source.registry)}, nil
}

func (source *GoMetricsBackend) NewTimer(id ID) (TimerHandle, error) {
	return &goMetricsTimer{goMetrics.GetOrRegisterTimer(hierarchicalName(id), source.registry)}, nil
}

func (source *GoMetricsBackend) NewGauge(id ID, valueSource func() float64) (GaugeHandle, error) {
	gauge := goMetrics.NewFunctionalGaugeFloat64(valueSource)
	if err := source.registry.Register(hierarchicalName(id), gauge); err != nil {
		if _, ok := err.(goMetrics.DuplicateMetric); !ok {
			return nil, fmt.Errorf("can't register gauge %s: %w", id, err)
		}
	}

	return &goMetricsGauge{gauge}, nil
}

func initPrefix(prefix string) (string, error) {
	if !strings.Contains(prefix, hostnameTmpl) {
		return prefix, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return prefix, err
	}
	short := strings.Split(hostname, ".")[0]

	return strings.ReplaceAll(prefix, hostnameTmpl, short), nil
}

// hierarchicalName maps a dimensional id onto a graphite dot path.
func hierarchicalName(id ID) string {
	path := make([]string, 0, len(id.Tags)+1)
	path = append(path, ReplaceNonAllowedMetricCharacters(id.Name))
	for _, key := range id.Tags.SortedKeys() {
		path = append(path, ReplaceNonAllowedMetricCharacters(key+"_"+id.Tags[key]))
	}

	return getGraphiteMetricName(path)
}

func getGraphiteMetricName(path []string) string {
	return strings.Join(path, ".")
}

type goMetricsCounter struct {
	counter goMetrics.Counter
}

func (source *goMetricsCounter) Increment(delta int64) {
	source.counter.Inc(delta)
}

func (source *goMetricsCounter) Count() int64 {
	return source.counter.Count()
}

type goMetricsTimer struct {
	timer goMetrics.Timer
}

func (source *goMetricsTimer) Record(duration time.Duration) {
	source.timer.Update(duration)
}

func (source *goMetricsTimer) Stats() TimerStats {
	return TimerStats{
		Count:      source.timer.Count(),
		TotalNanos: float64(source.timer.Sum()),
		MaxNanos:   float64(source.timer.Max()),
	}
}

type goMetricsGauge struct {
	gauge goMetrics.GaugeFloat64
}

func (source *goMetricsGauge) Value() float64 {
	return source.gauge.Value()
}
