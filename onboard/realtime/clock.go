// Package realtime holds the timing primitives the board uses for step pulses and ADC
// settling: a monotonic busy wait and temporary real time scheduling of the calling thread.
package realtime

import (
	"time"
)

// Clock is the time source the busy waits spin against.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// BusyWait spins on c until d has elapsed. The thread is never put to sleep, so on an elevated
// thread the wait is as accurate as the clock.
func BusyWait(c Clock, d time.Duration) {
	if d <= 0 {
		return
	}
	start := c.Now()
	for c.Now().Sub(start) < d {
	}
}

// HalfPeriod returns half of the period of a square wave at hz. hz must be positive.
func HalfPeriod(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz / 2)
}
