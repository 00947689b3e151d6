package engine

import "sync/atomic"

// Clock hands out journal sequence numbers. Seqs are strictly increasing
// and never derived from wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start, typically the
// journal's last seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Release returns seq to the clock if it is still the most recent one,
// so an invocation that journaled nothing leaves no gap. It reports
// whether the seq was released.
func (c *Clock) Release(seq int64) bool {
	return c.seq.CompareAndSwap(seq, seq-1)
}
