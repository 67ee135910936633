package meterhub

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelMetric "go.opentelemetry.io/otel/metric"
	sdkMetric "go.opentelemetry.io/otel/sdk/metric"
)

const otelScopeName = "github.com/meterhub/meterhub"

// OtelBackend realizes instruments through an OpenTelemetry meter provider:
// counters as Int64Counters, timers as Float64Histograms observing seconds,
// gauges as Float64ObservableGauges. Tags become attributes and export is
// driven by whatever readers the provider was built with.
type OtelBackend struct {
	meter otelMetric.Meter
}

// NewOtelBackend creates the backend over an existing meter provider.
func NewOtelBackend(provider *sdkMetric.MeterProvider) *OtelBackend {
	return &OtelBackend{meter: provider.Meter(otelScopeName)}
}

func (source *OtelBackend) NewCounter(id ID) (CounterHandle, error) {
	options := []otelMetric.Int64CounterOption{otelMetric.WithDescription(id.Description)}
	if id.BaseUnit != "" {
		options = append(options, otelMetric.WithUnit(id.BaseUnit))
	}
	counter, err := source.meter.Int64Counter(id.Name, options...)
	if err != nil {
		return nil, fmt.Errorf("can't create otel counter %s: %w", id, err)
	}

	return &otelCounter{counter: counter, attributes: tagsToAttributes(id.Tags)}, nil
}

func (source *OtelBackend) NewTimer(id ID) (TimerHandle, error) {
	histogram, err := source.meter.Float64Histogram(
		id.Name,
		otelMetric.WithDescription(id.Description),
		otelMetric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("can't create otel timer %s: %w", id, err)
	}

	return &otelTimer{histogram: histogram, attributes: tagsToAttributes(id.Tags)}, nil
}

func (source *OtelBackend) NewGauge(id ID, valueSource func() float64) (GaugeHandle, error) {
	attributes := tagsToAttributes(id.Tags)
	_, err := source.meter.Float64ObservableGauge(
		id.Name,
		otelMetric.WithDescription(id.Description),
		otelMetric.WithFloat64Callback(func(ctx context.Context, observer otelMetric.Float64Observer) error {
			observer.Observe(valueSource(), otelMetric.WithAttributes(attributes...))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("can't create otel gauge %s: %w", id, err)
	}

	return &otelGauge{source: valueSource}, nil
}

func tagsToAttributes(tags Tags) []attribute.KeyValue {
	attributes := make([]attribute.KeyValue, 0, len(tags))
	for _, key := range tags.SortedKeys() {
		attributes = append(attributes, attribute.String(key, tags[key]))
	}

	return attributes
}

type otelCounter struct {
	counter    otelMetric.Int64Counter
	attributes []attribute.KeyValue
	count      int64
}

func (source *otelCounter) Increment(delta int64) {
	source.counter.Add(context.Background(), delta, otelMetric.WithAttributes(source.attributes...))
	atomic.AddInt64(&source.count, delta)
}

func (source *otelCounter) Count() int64 {
	return atomic.LoadInt64(&source.count)
}

// otelTimer keeps shadow aggregates beside the histogram so the timer's own
// statistics stay answerable without an export round-trip.
type otelTimer struct {
	histogram  otelMetric.Float64Histogram
	attributes []attribute.KeyValue
	count      int64
	total      int64
	max        int64
}

func (source *otelTimer) Record(duration time.Duration) {
	source.histogram.Record(context.Background(), duration.Seconds(), otelMetric.WithAttributes(source.attributes...))
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

func (source *otelTimer) Stats() TimerStats {
	return TimerStats{
		Count:      atomic.LoadInt64(&source.count),
		TotalNanos: float64(atomic.LoadInt64(&source.total)),
		MaxNanos:   float64(atomic.LoadInt64(&source.max)),
	}
}

type otelGauge struct {
	source func() float64
}

func (source *otelGauge) Value() float64 {
	return source.source()
}
