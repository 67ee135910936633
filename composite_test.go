package meterhub

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/meterhub/meterhub/clock"
)

// panicBackend fails on every recording, standing in for an unavailable
// child backend.
type panicBackend struct{}

func (panicBackend) NewCounter(id ID) (CounterHandle, error) {
	return panicCounterHandle{}, nil
}

func (panicBackend) NewTimer(id ID) (TimerHandle, error) {
	return panicTimerHandle{}, nil
}

func (panicBackend) NewGauge(id ID, source func() float64) (GaugeHandle, error) {
	return panicGaugeHandle{}, nil
}

type panicCounterHandle struct{}

func (panicCounterHandle) Increment(delta int64) { panic("backend unavailable") }
func (panicCounterHandle) Count() int64          { panic("backend unavailable") }

type panicTimerHandle struct{}

func (panicTimerHandle) Record(duration time.Duration) { panic("backend unavailable") }
func (panicTimerHandle) Stats() TimerStats             { panic("backend unavailable") }

type panicGaugeHandle struct{}

func (panicGaugeHandle) Value() float64 { panic("backend unavailable") }

func TestCompositeFanOut(t *testing.T) {
	Convey("With a composite over two healthy children", t, func() {
		first := NewRegistry(NewMemoryBackend(), Config{})
		second := NewRegistry(NewMemoryBackend(), Config{})
		composite := NewCompositeRegistry(first, second)

		Convey("One increment is reflected in both children independently", func() {
			composite.NewCounter("requests", nil).Inc()
			So(first.NewCounter("requests", nil).Count(), ShouldEqual, 1)
			So(second.NewCounter("requests", nil).Count(), ShouldEqual, 1)
		})

		Convey("Recorded durations fan out and queries read the first child", func() {
			timer := composite.NewTimer("latency", nil)
			timer.Record(12 * time.Millisecond)
			So(timer.Count(), ShouldEqual, 1)
			So(timer.Max(time.Millisecond), ShouldEqual, 12)
			So(first.NewTimer("latency", nil).Count(), ShouldEqual, 1)
			So(second.NewTimer("latency", nil).Count(), ShouldEqual, 1)
		})

		Convey("All children observe one shared gauge cell", func() {
			gauge := composite.NewGauge("pool.size", nil)
			gauge.Set(7)
			So(gauge.Value(), ShouldEqual, 7)
			So(first.NewGauge("pool.size", nil).Value(), ShouldEqual, 7)
			So(second.NewGauge("pool.size", nil).Value(), ShouldEqual, 7)
		})

		Convey("The composite coalesces repeated lookups", func() {
			So(composite.NewCounter("requests", nil), ShouldEqual, composite.NewCounter("requests", nil))
			So(composite.Meters(), ShouldHaveLength, 1)
		})

		Convey("Kind conflicts surface through the composite too", func() {
			_, err := composite.RegisterCounter(MeterOptions{Name: "requests"})
			So(err, ShouldBeNil)
			_, err = composite.RegisterTimer(MeterOptions{Name: "requests"})
			So(err, ShouldWrap, ErrKindConflict)
		})
	})

	Convey("With one faulty child between two healthy ones", t, func() {
		healthy := NewRegistry(NewMemoryBackend(), Config{})
		faulty := NewRegistry(panicBackend{}, Config{})
		trailing := NewRegistry(NewMemoryBackend(), Config{})
		composite := NewCompositeRegistry(healthy, faulty, trailing)

		Convey("A failing recording does not stop propagation to later children", func() {
			counter := composite.NewCounter("requests", nil)
			So(func() { counter.Inc() }, ShouldNotPanic)
			So(healthy.NewCounter("requests", nil).Count(), ShouldEqual, 1)
			So(trailing.NewCounter("requests", nil).Count(), ShouldEqual, 1)
		})

		Convey("Timers are isolated the same way", func() {
			timer := composite.NewTimer("latency", nil)
			So(func() { timer.Record(5 * time.Millisecond) }, ShouldNotPanic)
			So(healthy.NewTimer("latency", nil).Count(), ShouldEqual, 1)
			So(trailing.NewTimer("latency", nil).Count(), ShouldEqual, 1)
		})
	})

	Convey("With an empty composite", t, func() {
		composite := NewCompositeRegistry()

		Convey("Recordings are accepted and queries answer zero", func() {
			counter := composite.NewCounter("requests", nil)
			counter.Inc()
			So(counter.Count(), ShouldEqual, 0)

			timer := composite.NewTimer("latency", nil)
			timer.Record(time.Millisecond)
			So(timer.Count(), ShouldEqual, 0)
		})
	})
}

func TestCompositeTimerClock(t *testing.T) {
	Convey("Samples from composite timers follow the configured clock", t, func() {
		fakeClock := clock.NewFakeClock(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
		child := NewRegistry(NewMemoryBackend(), Config{Clock: fakeClock})
		composite := NewCompositeRegistry(child)
		composite.SetClock(fakeClock)

		timer := composite.NewTimer("latency", nil)
		sample := timer.Start()
		fakeClock.Advance(250 * time.Millisecond)

		So(sample.Stop(), ShouldEqual, 250*time.Millisecond)
		So(timer.Count(), ShouldEqual, 1)
		So(timer.Max(time.Millisecond), ShouldEqual, 250)
	})
}

func TestCompositeAddChild(t *testing.T) {
	Convey("Adding a child is not retroactive", t, func() {
		first := NewRegistry(NewMemoryBackend(), Config{})
		composite := NewCompositeRegistry(first)

		before := composite.NewCounter("requests", nil)

		late := NewRegistry(NewMemoryBackend(), Config{})
		composite.AddChild(late)

		before.Inc()
		So(first.NewCounter("requests", nil).Count(), ShouldEqual, 1)
		So(late.Meters(), ShouldBeEmpty)

		Convey("while meters created afterwards fan out to the new child", func() {
			after := composite.NewTimer("latency", nil)
			after.Record(time.Millisecond)
			So(late.NewTimer("latency", nil).Count(), ShouldEqual, 1)
		})
	})
}
