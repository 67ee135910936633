package clock

import "time"

// SystemClock is the wall-clock implementation of the clock component.
type SystemClock struct{}

// NewSystemClock is a constructor for the clock component.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time.Time.
func (t *SystemClock) Now() time.Time {
	return time.Now()
}

// NowUTC returns now time.Time with UTC location.
func (t *SystemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

// NowUnix returns now time.Time as a Unix time.
func (t *SystemClock) NowUnix() int64 {
	return time.Now().Unix()
}

// Sleep pauses the current goroutine for at least the passed duration.
func (t *SystemClock) Sleep(duration time.Duration) {
	time.Sleep(duration)
}
