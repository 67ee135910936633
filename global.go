package meterhub

import (
	"sync"
	"time"
)

// The process-wide composite registry. It exists so any code, anywhere, can
// emit a metric without plumbing a registry handle through every call path;
// it is the only ambient state in this package.

var (
	globalMu sync.Mutex
	global   *CompositeRegistry
)

// Global returns the process-wide composite registry, creating an empty one
// on first use. Until Init or AddChild attaches a backend, recordings through
// it are silently discarded.
func Global() *CompositeRegistry {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		global = NewCompositeRegistry()
	}

	return global
}

// Init attaches a default in-memory backend child configured from config and
// returns the global registry. It is not guarded against double
// initialization: calling it twice adds a second backend child, so callers
// are responsible for calling it once per process.
func Init(config Config) *CompositeRegistry {
	registry := Global()
	if config.Logger != nil {
		registry.SetLogger(config.Logger)
	}
	registry.AddChild(NewRegistry(NewMemoryBackend(), config))

	return registry
}

// SetGlobal replaces the process-wide registry and returns a restore
// function. Tests should install a fresh registry instead of recording into
// the true global.
func SetGlobal(registry *CompositeRegistry) func() {
	globalMu.Lock()
	defer globalMu.Unlock()

	previous := global
	global = registry

	return func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		global = previous
	}
}

// GetCounter resolves a counter against the global registry.
func GetCounter(name string, tags Tags) Counter {
	return Global().NewCounter(name, tags)
}

// GetTimer resolves a timer against the global registry.
func GetTimer(name string, tags Tags) Timer {
	return Global().NewTimer(name, tags)
}

// GetGauge resolves a cell-backed gauge against the global registry.
func GetGauge(name string, tags Tags) Gauge {
	return Global().NewGauge(name, tags)
}

// Increment adds 1 to the named counter on the global registry.
func Increment(name string, tags Tags) {
	GetCounter(name, tags).Inc()
}

// RecordDuration records a duration on the named timer on the global
// registry.
func RecordDuration(name string, tags Tags, duration time.Duration) {
	GetTimer(name, tags).Record(duration)
}
