package com

import (
	"sync"
	"sync/atomic"
)

// Counter implements an atomic counter whose current value can be reset
// without losing track of the total.
type Counter struct {
	value atomic.Uint64
	mu    sync.Mutex // Protects total.
	total uint64
}

// Add adds the given delta to the counter.
func (c *Counter) Add(delta uint64) {
	c.value.Add(delta)
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.Add(1)
}

// Reset resets the counter to 0 and returns its previous value.
// Does not reset the total value returned from Total.
func (c *Counter) Reset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.value.Swap(0)
	c.total += v

	return v
}

// Total returns the sum of all values ever added.
func (c *Counter) Total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.total + c.Val()
}

// Val returns the value added since the last Reset.
func (c *Counter) Val() uint64 {
	return c.value.Load()
}
