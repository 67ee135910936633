package meterhub

import (
	"math"
	"sync/atomic"
	"weak"
)

// GaugeCell is a mutable numeric cell shared between a caller and a gauge.
// Reads and writes are atomic; when several writers race, whichever wrote
// last wins.
type GaugeCell struct {
	bits uint64
}

// NewGaugeCell returns a cell holding 0.
func NewGaugeCell() *GaugeCell {
	return &GaugeCell{}
}

// Set stores a new value.
func (cell *GaugeCell) Set(value float64) {
	atomic.StoreUint64(&cell.bits, math.Float64bits(value))
}

// Value reads the current value.
func (cell *GaugeCell) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&cell.bits))
}

// GaugeObject registers a gauge observing a field of a caller-owned object.
// The registry holds only a weak reference to the object, so the gauge does
// not keep it alive: once the caller drops the object and it is collected,
// the gauge reads 0. Use RetainedGaugeObject when the gauge itself should
// guarantee the object's liveness.
func GaugeObject[T any](registry Registry, name string, tags Tags, object *T, observe func(object *T) float64) Gauge {
	pointer := weak.Make(object)

	return registry.NewGaugeFunc(name, tags, func() float64 {
		target := pointer.Value()
		if target == nil {
			return 0
		}

		return observe(target)
	})
}

// RetainedGaugeObject registers a gauge holding a strong reference to the
// observed object. The object stays reachable for as long as the registry
// does; that is a deliberate memory-retention trade-off.
func RetainedGaugeObject[T any](registry Registry, name string, tags Tags, object *T, observe func(object *T) float64) Gauge {
	return registry.NewGaugeFunc(name, tags, func() float64 {
		return observe(object)
	})
}
