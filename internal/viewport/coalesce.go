package viewport

import "sync"

// Coalescer keeps only the latest value pushed between two frames.
type Coalescer[T any] struct {
	mu      sync.Mutex
	pending T
	has     bool
}

// Push replaces any value waiting for the next frame.
func (c *Coalescer[T]) Push(v T) {
	c.mu.Lock()
	c.pending, c.has = v, true
	c.mu.Unlock()
}

// Flush hands out the latest value, if any, and empties the slot.
func (c *Coalescer[T]) Flush() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.pending, c.has
	var zero T
	c.pending, c.has = zero, false
	return v, ok
}

// Drop discards a pending value.
func (c *Coalescer[T]) Drop() {
	c.Flush()
}
