package simulation

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// instantClock is a fake clock that advances itself whenever something waits
// on it, so a full ceremony runs in microseconds with realistic timestamps.
type instantClock struct {
	*clockwork.FakeClock
}

// NewInstantClock returns a self-advancing clock starting at start.
// It must only be driven from a single goroutine.
func NewInstantClock(start time.Time) clockwork.Clock {
	return instantClock{FakeClock: clockwork.NewFakeClockAt(start)}
}

func (c instantClock) Sleep(d time.Duration) {
	c.Advance(d)
}

func (c instantClock) After(d time.Duration) <-chan time.Time {
	ch := c.FakeClock.After(d)
	c.Advance(d)
	return ch
}
