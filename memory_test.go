package meterhub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendQueries(t *testing.T) {
	backend := NewMemoryBackend()
	registry := NewRegistry(backend, Config{})

	counter := registry.NewCounter("requests", Tags{"route": "/x"})
	counter.Add(5)

	total, ok := backend.QueryCounter(NewID("requests", KindCounter, Tags{"route": "/x"}))
	require.True(t, ok)
	require.EqualValues(t, 5, total)

	timer := registry.NewTimer("latency", nil)
	timer.Record(5 * time.Millisecond)
	timer.Record(12 * time.Millisecond)

	stats, ok := backend.QueryTimer(NewID("latency", KindTimer, nil))
	require.True(t, ok)
	require.EqualValues(t, 2, stats.Count)
	require.EqualValues(t, 17*time.Millisecond, stats.TotalNanos)
	require.EqualValues(t, 12*time.Millisecond, stats.MaxNanos)

	_, ok = backend.QueryTimer(NewID("missing", KindTimer, nil))
	require.False(t, ok)
	_, ok = backend.QueryCounter(NewID("latency", KindCounter, nil))
	require.False(t, ok)
}

func TestMemoryTimerConcurrentMax(t *testing.T) {
	backend := NewMemoryBackend()
	registry := NewRegistry(backend, Config{})
	timer := registry.NewTimer("latency", nil)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			timer.Record(time.Duration(n+1) * time.Millisecond)
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, workers, timer.Count())
	require.EqualValues(t, workers, timer.Max(time.Millisecond))
}
