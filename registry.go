package meterhub

import (
	"fmt"
	"sort"
	"sync"
)

// MeterOptions carries everything a registration needs. Name and Tags are
// identity, Description and BaseUnit are metadata. Options are applied in a
// fixed order: common tags, then filters, then registration.
type MeterOptions struct {
	Name        string
	Tags        Tags
	Description string
	BaseUnit    string
}

// GaugeOptions additionally carries the value source. A nil Source means the
// registry owns the backing cell and the returned gauge's Set writes it.
type GaugeOptions struct {
	MeterOptions
	Source func() float64
}

// Registry creates and looks up meters by name and tags. Both
// StandardRegistry and CompositeRegistry satisfy it.
//
// The New* forms never fail the caller: registration mistakes are logged and
// answered with a no-op instrument. The Register* forms surface those
// mistakes as errors.
type Registry interface {
	NewCounter(name string, tags Tags) Counter
	NewTimer(name string, tags Tags) Timer
	NewGauge(name string, tags Tags) Gauge
	NewGaugeFunc(name string, tags Tags, source func() float64) Gauge

	RegisterCounter(options MeterOptions) (Counter, error)
	RegisterTimer(options MeterOptions) (Timer, error)
	RegisterGauge(options GaugeOptions) (Gauge, error)

	Meters() []Meter
}

// Config is the registry configuration surface. Every field is independently
// optional.
type Config struct {
	// Tags are merged into every registered id; instance tags win on
	// conflicting keys.
	Tags Tags
	// Filters run in order against every candidate id.
	Filters []Filter
	Logger  Logger
	Clock   Clock
}

// StandardRegistry owns the id to meter mapping for one backend. Creation of
// a cold id takes the registry mutex so exactly one instrument exists per id
// under racing callers; recording against a created meter never touches the
// registry again.
type StandardRegistry struct {
	backend    Backend
	commonTags Tags
	filters    []Filter
	logger     Logger
	clock      Clock

	mu     sync.RWMutex
	meters map[string]Meter
}

// NewRegistry creates a registry over the given backend.
func NewRegistry(backend Backend, config Config) *StandardRegistry {
	logger := config.Logger
	if logger == nil {
		logger = NewNullLogger()
	}
	clk := config.Clock
	if clk == nil {
		clk = systemClock{}
	}

	return &StandardRegistry{
		backend:    backend,
		commonTags: config.Tags.Copy(),
		filters:    config.Filters,
		logger:     logger,
		clock:      clk,
		meters:     make(map[string]Meter),
	}
}

// NewCounter finds or creates a counter. Registration mistakes yield a no-op.
func (source *StandardRegistry) NewCounter(name string, tags Tags) Counter {
	meter, err := source.RegisterCounter(MeterOptions{Name: name, Tags: tags})
	if err != nil {
		source.logger.Errorf("counter %s registration failed: %s", name, err.Error())
		return NewNoopCounter(NewID(name, KindCounter, tags))
	}

	return meter
}

// NewTimer finds or creates a timer. Registration mistakes yield a no-op.
func (source *StandardRegistry) NewTimer(name string, tags Tags) Timer {
	meter, err := source.RegisterTimer(MeterOptions{Name: name, Tags: tags})
	if err != nil {
		source.logger.Errorf("timer %s registration failed: %s", name, err.Error())
		return NewNoopTimer(NewID(name, KindTimer, tags), source.clock)
	}

	return meter
}

// NewGauge finds or creates a cell-backed gauge.
func (source *StandardRegistry) NewGauge(name string, tags Tags) Gauge {
	meter, err := source.RegisterGauge(GaugeOptions{MeterOptions: MeterOptions{Name: name, Tags: tags}})
	if err != nil {
		source.logger.Errorf("gauge %s registration failed: %s", name, err.Error())
		return NewNoopGauge(NewID(name, KindGauge, tags))
	}

	return meter
}

// NewGaugeFunc finds or creates a gauge observing a caller-owned source.
func (source *StandardRegistry) NewGaugeFunc(name string, tags Tags, valueSource func() float64) Gauge {
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

// RegisterCounter finds or creates a counter, surfacing registration
// mistakes as errors.
func (source *StandardRegistry) RegisterCounter(options MeterOptions) (Counter, error) {
	id, accepted, err := source.resolveID(options, KindCounter)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return NewNoopCounter(id), nil
	}

	source.mu.Lock()
	defer source.mu.Unlock()

	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Counter), nil
	}

	handle, err := source.backend.NewCounter(id)
	if err != nil {
		return nil, fmt.Errorf("can't create counter %s: %w", id, err)
	}
	meter := &counter{id: id, handle: handle}
	source.meters[id.mapKey()] = meter

	return meter, nil
}

// RegisterTimer finds or creates a timer, surfacing registration mistakes as
// errors.
func (source *StandardRegistry) RegisterTimer(options MeterOptions) (Timer, error) {
	id, accepted, err := source.resolveID(options, KindTimer)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return NewNoopTimer(id, source.clock), nil
	}

	source.mu.Lock()
	defer source.mu.Unlock()

	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Timer), nil
	}

	handle, err := source.backend.NewTimer(id)
	if err != nil {
		return nil, fmt.Errorf("can't create timer %s: %w", id, err)
	}
	meter := &timer{id: id, clock: source.clock, handle: handle}
	source.meters[id.mapKey()] = meter

	return meter, nil
}

// RegisterGauge finds or creates a gauge, surfacing registration mistakes as
// errors.
func (source *StandardRegistry) RegisterGauge(options GaugeOptions) (Gauge, error) {
	id, accepted, err := source.resolveID(options.MeterOptions, KindGauge)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return NewNoopGauge(id), nil
	}

	source.mu.Lock()
	defer source.mu.Unlock()

	if existing, ok, err := source.findExisting(id); err != nil {
		return nil, err
	} else if ok {
		return existing.(Gauge), nil
	}

	valueSource := options.Source
	var cell *GaugeCell
	if valueSource == nil {
		cell = NewGaugeCell()
		valueSource = cell.Value
	}

	handle, err := source.backend.NewGauge(id, valueSource)
	if err != nil {
		return nil, fmt.Errorf("can't create gauge %s: %w", id, err)
	}
	meter := &gauge{id: id, cell: cell, handle: handle}
	source.meters[id.mapKey()] = meter

	return meter, nil
}

// Meters lists all live meters, ordered by name and tags for deterministic
// iteration.
func (source *StandardRegistry) Meters() []Meter {
	source.mu.RLock()
	defer source.mu.RUnlock()

	meters := make([]Meter, 0, len(source.meters))
	for _, meter := range source.meters {
		meters = append(meters, meter)
	}
	sort.Slice(meters, func(i, j int) bool {
		left, right := meters[i].ID(), meters[j].ID()
		if left.Name != right.Name {
			return left.Name < right.Name
		}

		return left.Tags.canonical() < right.Tags.canonical()
	})

	return meters
}

// Get returns the live meter registered under the given identity, if any.
func (source *StandardRegistry) Get(id ID) (Meter, bool) {
	source.mu.RLock()
	defer source.mu.RUnlock()

	meter, ok := source.meters[id.mapKey()]
	if !ok || meter.ID().Kind != id.Kind {
		return nil, false
	}

	return meter, true
}

// resolveID merges common tags, builds the candidate identity and runs the
// filter chain. The second return value is false when a filter denied the id.
func (source *StandardRegistry) resolveID(options MeterOptions, kind Kind) (ID, bool, error) {
	if err := ValidateMeterName(options.Name); err != nil {
		return ID{}, false, err
	}

	id := NewID(options.Name, kind, MergeTags(source.commonTags, options.Tags))
	id.Description = options.Description
	id.BaseUnit = options.BaseUnit

	filtered, accepted := ApplyFilters(source.filters, id)

	return filtered, accepted, nil
}

// findExisting resolves a lookup hit under the registry mutex. The first
// registration wins: differing metadata on a later call does not create a
// duplicate. A hit of a different kind is a programmer mistake.
func (source *StandardRegistry) findExisting(id ID) (Meter, bool, error) {
	existing, ok := source.meters[id.mapKey()]
	if !ok {
		return nil, false, nil
	}
	if existing.ID().Kind != id.Kind {
		return nil, false, fmt.Errorf("meter %s already registered as %s: %w", id, existing.ID().Kind, ErrKindConflict)
	}

	return existing, true, nil
}
