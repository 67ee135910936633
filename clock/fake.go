package clock

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced clock for deterministic tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a fake clock frozen at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the frozen instant.
func (t *FakeClock) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.now
}

// Sleep advances the clock without blocking.
func (t *FakeClock) Sleep(duration time.Duration) {
	t.Advance(duration)
}

// Advance moves the clock forward by the given duration.
func (t *FakeClock) Advance(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = t.now.Add(duration)
}
