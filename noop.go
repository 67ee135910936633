package meterhub

import "time"

// No-op instruments back denied or misregistered meters. They accept every
// recording and answer kind-appropriate zero statistics, so call sites can
// fire metrics without knowing whether they are enabled.

type noopCounter struct {
	id ID
}

// NewNoopCounter returns a counter that discards all recordings.
func NewNoopCounter(id ID) Counter {
	return &noopCounter{id: id}
}

func (source *noopCounter) ID() ID          { return source.id }
func (source *noopCounter) Inc()            {}
func (source *noopCounter) Add(delta int64) {}
func (source *noopCounter) Count() int64    { return 0 }

type noopTimer struct {
	id    ID
	clock Clock
}

// NewNoopTimer returns a timer that discards all recordings. Samples started
// from it still stop cleanly.
func NewNoopTimer(id ID, clock Clock) Timer {
	if clock == nil {
		clock = systemClock{}
	}

	return &noopTimer{id: id, clock: clock}
}

func (source *noopTimer) ID() ID                        { return source.id }
func (source *noopTimer) Record(duration time.Duration) {}

func (source *noopTimer) Start() *Sample {
	return &Sample{timer: source, clock: source.clock, start: source.clock.Now()}
}

func (source *noopTimer) Time(fn func()) {
	sample := source.Start()
	defer sample.Stop()
	fn()
}

func (source *noopTimer) Count() int64                         { return 0 }
func (source *noopTimer) TotalTime(unit time.Duration) float64 { return 0 }
func (source *noopTimer) Max(unit time.Duration) float64       { return 0 }
func (source *noopTimer) Mean(unit time.Duration) float64      { return 0 }
func (source *noopTimer) Rate(unit time.Duration) float64      { return 0 }

type noopGauge struct {
	id ID
}

// NewNoopGauge returns a gauge whose value always reads 0.
func NewNoopGauge(id ID) Gauge {
	return &noopGauge{id: id}
}

func (source *noopGauge) ID() ID            { return source.id }
func (source *noopGauge) Set(value float64) {}
func (source *noopGauge) Value() float64    { return 0 }
