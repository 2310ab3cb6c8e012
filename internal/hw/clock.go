package hw

import (
	"sync/atomic"
	"time"
)

// Millis is a monotonic millisecond tick that wraps at 2^32.
type Millis uint32

// Elapsed returns the ticks between since and now. The subtraction is
// unsigned so a counter rollover between the two readings is harmless.
func Elapsed(now, since Millis) Millis {
	return now - since
}

// Clock provides the monotonic millisecond tick.
type Clock interface {
	Now() Millis
}

// SystemClock derives ticks from the process monotonic clock.
type SystemClock struct {
	start  time.Time
	offset Millis
}

// NewSystemClock returns a clock that reads zero at construction.
func NewSystemClock() *SystemClock {
	return NewSystemClockAt(0)
}

// NewSystemClockAt returns a clock that reads offset at construction.
func NewSystemClockAt(offset Millis) *SystemClock {
	return &SystemClock{start: time.Now(), offset: offset}
}

// Now implements Clock.
func (c *SystemClock) Now() Millis {
	return c.offset + Millis(uint64(time.Since(c.start).Milliseconds()))
}

// ManualClock is a Clock advanced explicitly by the caller.
// Used by the simulator and tests.
type ManualClock struct {
	now atomic.Uint32
}

// NewManualClock returns a clock reading start.
func NewManualClock(start Millis) *ManualClock {
	c := &ManualClock{}
	c.now.Store(uint32(start))
	return c
}

// Now implements Clock.
func (c *ManualClock) Now() Millis {
	return Millis(c.now.Load())
}

// Set moves the clock to t.
func (c *ManualClock) Set(t Millis) {
	c.now.Store(uint32(t))
}

// Advance moves the clock forward by d ticks, wrapping at 2^32.
func (c *ManualClock) Advance(d Millis) Millis {
	return Millis(c.now.Add(uint32(d)))
}
