package meterhub

import (
	"os"
	"runtime"
	"sync"
	"time"
)

// Binders register process-level gauges through the public registry API;
// they hold no privilege over ordinary call sites.

// RuntimeMetricsConfig selects Go runtime facets to bind. Each facet is
// independently optional.
type RuntimeMetricsConfig struct {
	Memory     bool
	GC         bool
	Goroutines bool
}

// AllRuntimeMetrics enables every runtime facet.
var AllRuntimeMetrics = RuntimeMetricsConfig{Memory: true, GC: true, Goroutines: true}

// SystemMetricsConfig selects OS-level facets to bind.
type SystemMetricsConfig struct {
	Uptime          bool
	FileDescriptors bool
}

// AllSystemMetrics enables every system facet.
var AllSystemMetrics = SystemMetricsConfig{Uptime: true, FileDescriptors: true}

// memStatsReader caches runtime.ReadMemStats results so several gauges
// scraped back-to-back pay for one stop-the-world read.
type memStatsReader struct {
	mu     sync.Mutex
	maxAge time.Duration
	read   time.Time
	stats  runtime.MemStats
}

func (reader *memStatsReader) get() runtime.MemStats {
	reader.mu.Lock()
	defer reader.mu.Unlock()

	if time.Since(reader.read) > reader.maxAge {
		runtime.ReadMemStats(&reader.stats)
		reader.read = time.Now()
	}

	return reader.stats
}

// BindRuntimeMetrics registers gauges for the selected Go runtime facets.
func BindRuntimeMetrics(registry Registry, config RuntimeMetricsConfig) {
	reader := &memStatsReader{maxAge: time.Second}

	if config.Memory {
		registry.NewGaugeFunc("runtime.mem.heap_alloc", nil, func() float64 {
			return float64(reader.get().HeapAlloc)
		})
		registry.NewGaugeFunc("runtime.mem.heap_objects", nil, func() float64 {
			return float64(reader.get().HeapObjects)
		})
		registry.NewGaugeFunc("runtime.mem.sys", nil, func() float64 {
			return float64(reader.get().Sys)
		})
	}
	if config.GC {
		registry.NewGaugeFunc("runtime.gc.count", nil, func() float64 {
			return float64(reader.get().NumGC)
		})
		registry.NewGaugeFunc("runtime.gc.pause_total", nil, func() float64 {
			return float64(reader.get().PauseTotalNs)
		})
	}
	if config.Goroutines {
		registry.NewGaugeFunc("runtime.goroutines", nil, func() float64 {
			return float64(runtime.NumGoroutine())
		})
	}
}

// BindSystemMetrics registers gauges for the selected OS facets. The file
// descriptor gauge reads /proc/self/fd and degrades to 0 where that is not
// available.
func BindSystemMetrics(registry Registry, config SystemMetricsConfig, clock Clock) {
	if clock == nil {
		clock = systemClock{}
	}

	if config.Uptime {
		start := clock.Now()
		registry.NewGaugeFunc("system.uptime", nil, func() float64 {
			return clock.Now().Sub(start).Seconds()
		})
	}
	if config.FileDescriptors {
		registry.NewGaugeFunc("system.fd.open", nil, func() float64 {
			entries, err := os.ReadDir("/proc/self/fd")
			if err != nil {
				return 0
			}

			return float64(len(entries))
		})
	}
}
