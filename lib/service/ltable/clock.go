package ltable

import (
	"sync/atomic"
	"time"
)

// Clock supplies the ticks that TTLs are measured in. Expiry never compares
// wall-clock time directly; an entry with a lifetime of n expires once the
// clock has advanced n ticks past the insert.
type Clock interface {
	// Now returns the current tick without advancing the clock.
	Now() uint64

	// Tick advances the clock and returns the new tick. Called once per
	// write operation.
	Tick() uint64

	// Advance moves the clock forward to at least the given tick. Used when
	// restoring a snapshot so pending TTLs keep their remaining lifetime.
	Advance(to uint64)
}

// --------------------------------------------------------------------------
// Logical Clock
// --------------------------------------------------------------------------

// logicalClock counts write operations. Deterministic: the same sequence of
// writes always produces the same ticks, which makes TTL behavior
// reproducible in tests.
type logicalClock struct {
	idx atomic.Uint64
}

// NewLogicalClock creates a clock that advances by one on every write.
func NewLogicalClock() Clock {
	return &logicalClock{}
}

func (c *logicalClock) Now() uint64 {
	return c.idx.Load()
}

func (c *logicalClock) Tick() uint64 {
	return c.idx.Add(1)
}

func (c *logicalClock) Advance(to uint64) {
	// Only ever move forward
	for {
		curr := c.idx.Load()
		if to <= curr {
			return
		}
		if c.idx.CompareAndSwap(curr, to) {
			return
		}
	}
}

// --------------------------------------------------------------------------
// System Clock
// --------------------------------------------------------------------------

// systemClock maps ticks to wall-clock milliseconds, so TTLs become
// millisecond lifetimes. Ticks are monotone non-decreasing but multiple
// writes within the same millisecond share a tick.
type systemClock struct{}

// NewSystemClock creates a clock backed by wall-clock milliseconds.
func NewSystemClock() Clock {
	return &systemClock{}
}

func (c *systemClock) Now() uint64 {
	return uint64(time.Now().UnixMilli())
}

func (c *systemClock) Tick() uint64 {
	return c.Now()
}

func (c *systemClock) Advance(uint64) {
	// Wall clock advances on its own
}
