package storetest

import "sync/atomic"

// Clock is a manual millisecond clock.
type Clock struct {
	ms atomic.Int64
}

func NewClock(start int64) *Clock {
	c := &Clock{}
	c.ms.Store(start)
	return c
}

func (c *Clock) Now() int64 { return c.ms.Load() }

func (c *Clock) Set(ms int64) { c.ms.Store(ms) }

func (c *Clock) Advance(ms int64) int64 { return c.ms.Add(ms) }
