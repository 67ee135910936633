package meterhub

import "time"

// Backend is the storage/export capability behind a registry. It realizes
// instruments for accepted ids and answers their aggregated statistics.
// Registries are polymorphic over backends: the in-memory backend, the
// go-metrics/graphite backend, the prometheus backend and the otel backend
// all satisfy this interface.
type Backend interface {
	NewCounter(id ID) (CounterHandle, error)
	NewTimer(id ID) (TimerHandle, error)
	// NewGauge binds an instrument to a caller-supplied value source. Pull
	// based backends read the source at scrape time.
	NewGauge(id ID, source func() float64) (GaugeHandle, error)
}

// CounterHandle is the backend side of a Counter. Increment is only called
// with non-negative deltas.
type CounterHandle interface {
	Increment(delta int64)
	Count() int64
}

// TimerStats is the aggregate contract every timer backend must answer.
type TimerStats struct {
	Count      int64
	TotalNanos float64
	MaxNanos   float64
}

// TimerHandle is the backend side of a Timer. Record is only called with
// non-negative durations.
type TimerHandle interface {
	Record(duration time.Duration)
	Stats() TimerStats
}

// GaugeHandle is the backend side of a Gauge.
type GaugeHandle interface {
	Value() float64
}
