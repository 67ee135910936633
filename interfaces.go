package meterhub

import "time"

// Logger is the logging interface used by registries to report backend
// failures and registration mistakes without failing the instrumented code.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warning(args ...interface{})
	Warningf(format string, args ...interface{})
}

// Clock supplies the instants used by timers. Swappable for tests.
type Clock interface {
	Now() time.Time
	Sleep(duration time.Duration)
}

// systemClock is the default wall clock used when no Clock is configured.
type systemClock struct{}

func (systemClock) Now() time.Time               { return time.Now() }
func (systemClock) Sleep(duration time.Duration) { time.Sleep(duration) }

// nullLogger discards everything. It is the default when no logger is
// configured.
type nullLogger struct{}

// NewNullLogger returns a logger that discards all records.
func NewNullLogger() Logger {
	return nullLogger{}
}

func (nullLogger) Debug(args ...interface{})                   {}
func (nullLogger) Debugf(format string, args ...interface{})   {}
func (nullLogger) Info(args ...interface{})                    {}
func (nullLogger) Infof(format string, args ...interface{})    {}
func (nullLogger) Error(args ...interface{})                   {}
func (nullLogger) Errorf(format string, args ...interface{})   {}
func (nullLogger) Warning(args ...interface{})                 {}
func (nullLogger) Warningf(format string, args ...interface{}) {}
