package meterhub

import (
	"sync"
	"time"
)

// Meter is a named, tagged instrument. The concrete variants are Counter,
// Timer and Gauge.
type Meter interface {
	ID() ID
}

// Counter accumulates a monotonically non-decreasing total. Negative deltas
// are silently discarded to preserve monotonicity.
type Counter interface {
	Meter
	Inc()
	Add(delta int64)
	Count() int64
}

// Timer records event durations and keeps count, cumulative total and max.
// The derived statistics take an output unit, e.g. time.Millisecond, and
// scale the internal nanosecond aggregates accordingly.
type Timer interface {
	Meter
	Record(duration time.Duration)
	Start() *Sample
	Time(fn func())
	Count() int64
	TotalTime(unit time.Duration) float64
	Max(unit time.Duration) float64
	Mean(unit time.Duration) float64
	Rate(unit time.Duration) float64
}

// Gauge reports an instantaneously-sampled value. Set writes the backing
// cell for cell-based gauges and is ignored for source-backed gauges.
type Gauge interface {
	Meter
	Set(value float64)
	Value() float64
}

// Sample is an opaque start-time handle for a timer recording. Stop records
// the elapsed time exactly once; further Stop calls, concurrent ones
// included, return the already recorded duration without recording again.
type Sample struct {
	timer Timer
	clock Clock
	start time.Time

	mu      sync.Mutex
	stopped bool
	elapsed time.Duration
}

// Stop records the time elapsed since Start on the originating timer and
// returns it.
func (sample *Sample) Stop() time.Duration {
	sample.mu.Lock()
	defer sample.mu.Unlock()

	if !sample.stopped {
		sample.stopped = true
		sample.elapsed = sample.clock.Now().Sub(sample.start)
		sample.timer.Record(sample.elapsed)
	}

	return sample.elapsed
}

// counter is the backend-bound Counter. It holds no state of its own beyond
// the identity; aggregation lives in the backend handle.
type counter struct {
	id     ID
	handle CounterHandle
}

func (source *counter) ID() ID { return source.id }

func (source *counter) Inc() { source.handle.Increment(1) }

func (source *counter) Add(delta int64) {
	if delta < 0 {
		return
	}
	source.handle.Increment(delta)
}

func (source *counter) Count() int64 { return source.handle.Count() }

// timer is the backend-bound Timer.
type timer struct {
	id     ID
	clock  Clock
	handle TimerHandle
}

func (source *timer) ID() ID { return source.id }

func (source *timer) Record(duration time.Duration) {
	if duration < 0 {
		return
	}
	source.handle.Record(duration)
}

func (source *timer) Start() *Sample {
	return &Sample{timer: source, clock: source.clock, start: source.clock.Now()}
}

// Time measures fn and records the elapsed duration on every exit path,
// including panics.
func (source *timer) Time(fn func()) {
	sample := source.Start()
	defer sample.Stop()
	fn()
}

func (source *timer) Count() int64 { return source.handle.Stats().Count }

func (source *timer) TotalTime(unit time.Duration) float64 {
	return source.handle.Stats().TotalNanos / float64(unit)
}

func (source *timer) Max(unit time.Duration) float64 {
	return source.handle.Stats().MaxNanos / float64(unit)
}

func (source *timer) Mean(unit time.Duration) float64 {
	stats := source.handle.Stats()
	if stats.Count == 0 {
		return 0
	}

	return stats.TotalNanos / float64(stats.Count) / float64(unit)
}

// Rate returns count per unit of recorded time. A freshly created timer has
// no recorded time, so the rate is 0 by convention.
func (source *timer) Rate(unit time.Duration) float64 {
	stats := source.handle.Stats()
	if stats.TotalNanos == 0 {
		return 0
	}

	return float64(stats.Count) / (stats.TotalNanos / float64(unit))
}

// gauge is the backend-bound Gauge. Cell-based gauges own a cell shared with
// the caller; source-backed gauges only observe and ignore Set.
type gauge struct {
	id     ID
	cell   *GaugeCell
	handle GaugeHandle
}

func (source *gauge) ID() ID { return source.id }

func (source *gauge) Set(value float64) {
	if source.cell == nil {
		return
	}
	source.cell.Set(value)
}

func (source *gauge) Value() float64 { return source.handle.Value() }
