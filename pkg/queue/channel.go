// Package queue provides an unbounded, closeable FIFO shared between goroutines.
package queue

import "sync"

// Channel is a thread-safe FIFO with close-then-drain semantics.
//
// Push never blocks. Pop blocks until an item is available or the channel is
// closed with nothing left in it. Items pushed before Close are still delivered;
// items pushed after Close are dropped.
type Channel[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	closed bool
}

// New creates an empty open channel.
func New[T any]() *Channel[T] {
	c := &Channel[T]{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Push enqueues v. It is a no-op once the channel is closed.
func (c *Channel[T]) Push(v T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items, v)
	c.mu.Unlock()
	c.cond.Signal()
}

// Pop removes and returns the oldest item. The boolean is false when the
// channel is closed and drained.
func (c *Channel[T]) Pop() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.head == len(c.items) && !c.closed {
		c.cond.Wait()
	}

	var zero T
	if c.head == len(c.items) {
		return zero, false
	}

	v := c.items[c.head]
	c.items[c.head] = zero
	c.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if c.head == len(c.items) {
		c.items = c.items[:0]
		c.head = 0
	} else if c.head > 64 && c.head*2 >= len(c.items) {
		n := copy(c.items, c.items[c.head:])
		clear(c.items[n:])
		c.items = c.items[:n]
		c.head = 0
	}

	return v, true
}

// Close marks the channel closed and wakes every blocked Pop. Calling it more
// than once has no further effect.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Len returns the number of queued items.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) - c.head
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
