package live

import "time"

// Clock abstracts wall-clock time so the dispatcher can be driven by tests
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a single-shot timer
type Timer interface {
	C() <-chan time.Time
	// Stop prevents the timer from firing. It reports whether the call stopped it.
	Stop() bool
}

// SystemClock uses the time package
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTimer starts a time.Timer
func (SystemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (t systemTimer) C() <-chan time.Time {
	return t.t.C
}

func (t systemTimer) Stop() bool {
	return t.t.Stop()
}
