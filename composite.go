package meterhub

import (
	"fmt"
	"sync"
	"time"
)

// CompositeRegistry fans every creation and recording out to an ordered set
// of child registries while remaining queryable itself: statistics are
// answered by the first child owning the id. A failing child is isolated so
// one faulty backend cannot break instrumentation process-wide.
//
// Adding a child is append-only and not retroactive: meters created before
// the child was added keep recording only into the children they were
// created against.
type CompositeRegistry struct {
	logger Logger
	clock  Clock

	mu       sync.Mutex
	children []Registry
	meters   map[string]Meter
}

// NewCompositeRegistry creates a composite over the given children.
func NewCompositeRegistry(children ...Registry) *CompositeRegistry {
	return &CompositeRegistry{
		logger:   NewNullLogger(),
		clock:    systemClock{},
		children: children,
		meters:   make(map[string]Meter),
	}
}

// SetLogger sets the logger used to report isolated child failures.
func (source *CompositeRegistry) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNullLogger()
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	source.logger = logger
}

// SetClock sets the clock used by samples started from composite timers.
func (source *CompositeRegistry) SetClock(clock Clock) {
	if clock == nil {
		clock = systemClock{}
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	source.clock = clock
}

// AddChild appends a registry to the fan-out set.
func (source *CompositeRegistry) AddChild(child Registry) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.children = append(source.children, child)
}

// Children returns a snapshot of the current fan-out set.
func (source *CompositeRegistry) Children() []Registry {
	source.mu.Lock()
	defer source.mu.Unlock()

	children := make([]Registry, len(source.children))
	copy(children, source.children)

	return children
}

// NewCounter finds or creates a fanned-out counter. Child failures yield a
// no-op, never an error.
func (source *CompositeRegistry) NewCounter(name string, tags Tags) Counter {
	meter, err := source.RegisterCounter(MeterOptions{Name: name, Tags: tags})
	if err != nil {
		source.logger.Errorf("counter %s registration failed: %s", name, err.Error())
		return NewNoopCounter(NewID(name, KindCounter, tags))
	}

	return meter
}

// NewTimer finds or creates a fanned-out timer.
func (source *CompositeRegistry) NewTimer(name string, tags Tags) Timer {
	meter, err := source.RegisterTimer(MeterOptions{Name: name, Tags: tags})
	if err != nil {
		source.logger.Errorf("timer %s registration failed: %s", name, err.Error())
		return NewNoopTimer(NewID(name, KindTimer, tags), source.clock)
	}

	return meter
}

// NewGauge finds or creates a fanned-out cell-backed gauge. All children
// observe the same cell.
func (source *CompositeRegistry) NewGauge(name string, tags Tags) Gauge {
	meter, err := source.RegisterGauge(GaugeOptions{MeterOptions: MeterOptions{Name: name, Tags: tags}})
	if err != nil {
		source.logger.Errorf("gauge %s registration failed: %s", name, err.Error())
		return NewNoopGauge(NewID(name, KindGauge, tags))
	}

	return meter
}

// NewGaugeFunc finds or creates a fanned-out gauge observing a caller-owned
// source.
func (source *CompositeRegistry) NewGaugeFunc(name string, tags Tags, valueSource func() float64) Gauge {
	meter, err := source.RegisterGauge(GaugeOptions{
		MeterOptions: MeterOptions{Name: name, Tags: tags},
		Source:       valueSource,
	})
	if err != nil {
		source.logger.Errorf("gauge %s registration failed: %s", name, err.Error())
		return NewNoopGauge(NewID(name, KindGauge, tags))
	}

	return meter
}

// RegisterCounter finds or creates a counter fanned out to every child in
// insertion order. A child that fails to register is logged and skipped so
// the remaining children still get the meter; an error is returned only when
// no child accepted it.
func (source *CompositeRegistry) RegisterCounter(options MeterOptions) (Counter, error) {
	source.mu.Lock()
	defer source.mu.Unlock()

	id := NewID(options.Name, KindCounter, options.Tags)
	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Counter), nil
	}

	counters := make([]Counter, 0, len(source.children))
	var firstErr error
	for _, child := range source.children {
		meter, err := child.RegisterCounter(options)
		if err != nil {
			source.logger.Errorf("counter %s: child registration failed: %s", id, err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		counters = append(counters, meter)
	}
	if firstErr != nil && len(counters) == 0 && len(source.children) > 0 {
		return nil, firstErr
	}

	composite := &compositeCounter{id: id, counters: counters, logger: source.logger}
	source.meters[id.mapKey()] = composite

	return composite, nil
}

// RegisterTimer finds or creates a timer fanned out to every child.
func (source *CompositeRegistry) RegisterTimer(options MeterOptions) (Timer, error) {
	source.mu.Lock()
	defer source.mu.Unlock()

	id := NewID(options.Name, KindTimer, options.Tags)
	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Timer), nil
	}

	timers := make([]Timer, 0, len(source.children))
	var firstErr error
	for _, child := range source.children {
		meter, err := child.RegisterTimer(options)
		if err != nil {
			source.logger.Errorf("timer %s: child registration failed: %s", id, err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		timers = append(timers, meter)
	}
	if firstErr != nil && len(timers) == 0 && len(source.children) > 0 {
		return nil, firstErr
	}

	composite := &compositeTimer{id: id, timers: timers, logger: source.logger, clock: source.clock}
	source.meters[id.mapKey()] = composite

	return composite, nil
}

// RegisterGauge finds or creates a gauge fanned out to every child. When no
// source is supplied the composite owns one cell shared by all children.
func (source *CompositeRegistry) RegisterGauge(options GaugeOptions) (Gauge, error) {
	source.mu.Lock()
	defer source.mu.Unlock()

	id := NewID(options.Name, KindGauge, options.Tags)
	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Gauge), nil
	}

	var cell *GaugeCell
	if options.Source == nil {
		cell = NewGaugeCell()
		options.Source = cell.Value
	}

	gauges := make([]Gauge, 0, len(source.children))
	var firstErr error
	for _, child := range source.children {
		meter, err := child.RegisterGauge(options)
		if err != nil {
			source.logger.Errorf("gauge %s: child registration failed: %s", id, err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		gauges = append(gauges, meter)
	}
	if firstErr != nil && len(gauges) == 0 && len(source.children) > 0 {
		return nil, firstErr
	}

	composite := &compositeGauge{id: id, cell: cell, gauges: gauges, logger: source.logger}
	source.meters[id.mapKey()] = composite

	return composite, nil
}

// Meters lists the composite's own meters: one instance per id regardless of
// how many children it fans out to.
func (source *CompositeRegistry) Meters() []Meter {
	source.mu.Lock()
	defer source.mu.Unlock()

	meters := make([]Meter, 0, len(source.meters))
	for _, meter := range source.meters {
		meters = append(meters, meter)
	}

	return meters
}

func (source *CompositeRegistry) findExisting(id ID) (Meter, bool, error) {
	existing, ok := source.meters[id.mapKey()]
	if !ok {
		return nil, false, nil
	}
	if existing.ID().Kind != id.Kind {
		return nil, false, fmt.Errorf("meter %s already registered as %s: %w", id, existing.ID().Kind, ErrKindConflict)
	}

	return existing, true, nil
}

// guard runs one child operation, converting a panicking backend into a
// logged report so the remaining children still get the recording.
func guard(logger Logger, id ID, op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("meter %s: child backend failed during %s: %s", id, op, fmt.Sprint(r))
		}
	}()
	fn()
}

type compositeCounter struct {
	id       ID
	counters []Counter
	logger   Logger
}

// NewCompositeCounter bundles several counters behind one Counter. Queries
// are answered by the first one.
func NewCompositeCounter(id ID, counters ...Counter) Counter {
	return &compositeCounter{id: id, counters: counters, logger: NewNullLogger()}
}

func (source *compositeCounter) ID() ID { return source.id }

func (source *compositeCounter) Inc() { source.Add(1) }

func (source *compositeCounter) Add(delta int64) {
	if delta < 0 {
		return
	}
	for _, counter := range source.counters {
		guard(source.logger, source.id, "add", func() { counter.Add(delta) })
	}
}

func (source *compositeCounter) Count() int64 {
	if len(source.counters) == 0 {
		return 0
	}

	return source.counters[0].Count()
}

type compositeTimer struct {
	id     ID
	timers []Timer
	logger Logger
	clock  Clock
}

// NewCompositeTimer bundles several timers behind one Timer.
func NewCompositeTimer(id ID, timers ...Timer) Timer {
	return &compositeTimer{id: id, timers: timers, logger: NewNullLogger(), clock: systemClock{}}
}

func (source *compositeTimer) ID() ID { return source.id }

func (source *compositeTimer) Record(duration time.Duration) {
	if duration < 0 {
		return
	}
	for _, timer := range source.timers {
		guard(source.logger, source.id, "record", func() { timer.Record(duration) })
	}
}

func (source *compositeTimer) Start() *Sample {
	return &Sample{timer: source, clock: source.clock, start: source.clock.Now()}
}

func (source *compositeTimer) Time(fn func()) {
	sample := source.Start()
	defer sample.Stop()
	fn()
}

func (source *compositeTimer) first() Timer {
	if len(source.timers) == 0 {
		return nil
	}

	return source.timers[0]
}

func (source *compositeTimer) Count() int64 {
	if first := source.first(); first != nil {
		return first.Count()
	}

	return 0
}

func (source *compositeTimer) TotalTime(unit time.Duration) float64 {
	if first := source.first(); first != nil {
		return first.TotalTime(unit)
	}

	return 0
}

func (source *compositeTimer) Max(unit time.Duration) float64 {
	if first := source.first(); first != nil {
		return first.Max(unit)
	}

	return 0
}

func (source *compositeTimer) Mean(unit time.Duration) float64 {
	if first := source.first(); first != nil {
		return first.Mean(unit)
	}

	return 0
}

func (source *compositeTimer) Rate(unit time.Duration) float64 {
	if first := source.first(); first != nil {
		return first.Rate(unit)
	}

	return 0
}

type compositeGauge struct {
	id     ID
	cell   *GaugeCell
	gauges []Gauge
	logger Logger
}

// NewCompositeGauge bundles several gauges behind one Gauge.
func NewCompositeGauge(id ID, gauges ...Gauge) Gauge {
	return &compositeGauge{id: id, gauges: gauges, logger: NewNullLogger()}
}

func (source *compositeGauge) ID() ID { return source.id }

func (source *compositeGauge) Set(value float64) {
	if source.cell != nil {
		source.cell.Set(value)
		return
	}
	for _, gauge := range source.gauges {
		guard(source.logger, source.id, "set", func() { gauge.Set(value) })
	}
}

func (source *compositeGauge) Value() float64 {
	if source.cell != nil {
		return source.cell.Value()
	}
	if len(source.gauges) == 0 {
		return 0
	}

	return source.gauges[0].Value()
}
