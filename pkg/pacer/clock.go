package pacer

import (
	"math"
	"time"
)

// Clock supplies monotonic time as seconds elapsed since an arbitrary origin,
// and owns the blocking waits taken against that time. Limiters record its
// readings in their window queue and sleep through it; injecting a Clock
// makes both window contents and waits testable without real sleeps.
type Clock interface {
	// Now returns monotonic seconds since the clock's origin.
	Now() float64

	// Sleep blocks the caller for the given number of seconds.
	Sleep(seconds float64)
}

// systemClock measures against a fixed origin captured at construction,
// so readings ride on Go's monotonic clock and are immune to wall resets.
type systemClock struct {
	origin time.Time
}

// NewSystemClock returns a Clock backed by the process monotonic clock.
func NewSystemClock() Clock {
	return &systemClock{origin: time.Now()}
}

func (c *systemClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

func (c *systemClock) Sleep(seconds float64) {
	time.Sleep(secondsToDuration(seconds))
}

// round4 rounds a timestamp to 4 decimal places, the precision at which
// window entries are recorded.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
