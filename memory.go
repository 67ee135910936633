package meterhub

import (
	"sync"
	"sync/atomic"
	"time"
)

// MemoryBackend is the default backend: plain in-process aggregation on
// instrument-local atomics, no export. Recording is lock-free and O(1).
type MemoryBackend struct {
	mu      sync.RWMutex
	handles map[string]interface{}
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{handles: make(map[string]interface{})}
}

func (source *MemoryBackend) NewCounter(id ID) (CounterHandle, error) {
	handle := &memoryCounter{}
	source.store(id, handle)

	return handle, nil
}

func (source *MemoryBackend) NewTimer(id ID) (TimerHandle, error) {
	handle := &memoryTimer{}
	source.store(id, handle)

	return handle, nil
}

func (source *MemoryBackend) NewGauge(id ID, valueSource func() float64) (GaugeHandle, error) {
	handle := &memoryGauge{source: valueSource}
	source.store(id, handle)

	return handle, nil
}

func (source *MemoryBackend) store(id ID, handle interface{}) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.handles[id.mapKey()] = handle
}

// QueryTimer answers the aggregated statistics stored under a timer id.
func (source *MemoryBackend) QueryTimer(id ID) (TimerStats, bool) {
	source.mu.RLock()
	defer source.mu.RUnlock()

	handle, ok := source.handles[id.mapKey()].(*memoryTimer)
	if !ok {
		return TimerStats{}, false
	}

	return handle.Stats(), true
}

// QueryCounter answers the cumulative total stored under a counter id.
func (source *MemoryBackend) QueryCounter(id ID) (int64, bool) {
	source.mu.RLock()
	defer source.mu.RUnlock()

	handle, ok := source.handles[id.mapKey()].(*memoryCounter)
	if !ok {
		return 0, false
	}

	return handle.Count(), true
}

type memoryCounter struct {
	total int64
}

func (source *memoryCounter) Increment(delta int64) {
	atomic.AddInt64(&source.total, delta)
}

func (source *memoryCounter) Count() int64 {
	return atomic.LoadInt64(&source.total)
}

type memoryTimer struct {
	count int64
	total int64
	max   int64
}

func (source *memoryTimer) Record(duration time.Duration) {
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

func (source *memoryTimer) Stats() TimerStats {
	return TimerStats{
		Count:      atomic.LoadInt64(&source.count),
		TotalNanos: float64(atomic.LoadInt64(&source.total)),
		MaxNanos:   float64(atomic.LoadInt64(&source.max)),
	}
}

type memoryGauge struct {
	source func() float64
}

func (source *memoryGauge) Value() float64 {
	return source.source()
}
