package wire

import (
	"sync/atomic"
	"time"
)

// Clock is a replaceable time source (spec §4.7 "Clock determinism").
// Production code uses SystemClock; tests use SettableClock to get a
// deterministic, monotonically-advancing sequence. Nothing else in this
// package reads a Clock: the method-event writer's history stamping copies
// the current MessageHistory and takes no timestamps of its own.
type Clock interface {
	Now() time.Time
}

// SystemClock delegates to time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SettableClock is a test double that starts at a fixed instant and
// auto-increments by 1 microsecond on every read, so successive
// timestamped events in a golden-file test are deterministic yet
// distinct (spec §4.7).
type SettableClock struct {
	nanos atomic.Int64
}

// NewSettableClock creates a SettableClock starting at start.
func NewSettableClock(start time.Time) *SettableClock {
	c := &SettableClock{}
	c.nanos.Store(start.UnixNano())
	return c
}

func (c *SettableClock) Now() time.Time {
	n := c.nanos.Add(1000) // 1 microsecond
	return time.Unix(0, n-1000)
}

// Set overrides the clock's current instant, for tests that need to pin a
// specific timestamp mid-sequence.
func (c *SettableClock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}
