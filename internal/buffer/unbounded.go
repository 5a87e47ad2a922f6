// Package buffer provides buffer implementations for concurrent streaming.
package buffer

import (
	"sync"
)

// Unbounded provides non-blocking sends with unlimited buffering.
// This ensures producers never block waiting for consumers.
//
// Usage:
//
//	buf := buffer.NewUnbounded[string]()
//	go func() {
//	    defer buf.Close()
//	    buf.Send("Hello")  // Never blocks
//	    buf.Send("World")  // Never blocks
//	}()
//	for item := range buf.Receive() {
//	    // Process item
//	}
//
// A consumer that stops reading early calls Abort, which discards pending items and closes
// the receive channel without waiting for the producer.
type Unbounded[T any] struct {
	mu      sync.Mutex
	items   []T
	cond    *sync.Cond
	closed  bool
	aborted bool
	out     chan T
	abort   chan struct{}
}

// NewUnbounded creates a new unbounded buffer.
// The returned buffer is ready to receive items via Send().
func NewUnbounded[T any]() *Unbounded[T] {
	b := &Unbounded[T]{
		items: make([]T, 0, 64),
		out:   make(chan T, 1),
		abort: make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.drainLoop()
	return b
}

// drainLoop continuously moves items from the internal queue to the output channel.
// It runs until the buffer is closed and drained, or aborted.
func (b *Unbounded[T]) drainLoop() {
	defer close(b.out)
	for {
		item, ok := b.dequeue()
		if !ok {
			return
		}
		select {
		case b.out <- item:
		case <-b.abort:
			return
		}
	}
}

// dequeue removes and returns the next item from the queue.
// It blocks until an item is available, or the buffer is closed or aborted.
// Returns (item, true) if an item was dequeued, (zero, false) otherwise.
func (b *Unbounded[T]) dequeue() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.items) == 0 && !b.closed && !b.aborted {
		b.cond.Wait()
	}

	var zero T
	if b.aborted || len(b.items) == 0 {
		return zero, false
	}

	item := b.items[0]
	b.items[0] = zero
	b.items = b.items[1:]

	return item, true
}

// Send adds an item to the buffer. This method NEVER blocks.
// It's safe to call from any goroutine.
// Returns false when the item was dropped because the buffer is closed or aborted.
func (b *Unbounded[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.aborted {
		return false
	}

	b.items = append(b.items, item)
	b.cond.Signal()
	return true
}

// Receive returns a channel that receives items from the buffer.
// The channel is closed after Close() once all pending items are drained, or right after Abort().
func (b *Unbounded[T]) Receive() <-chan T {
	return b.out
}

// Close marks the buffer as closed. Pending items are still delivered.
// It's safe to call multiple times.
func (b *Unbounded[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	b.cond.Signal()
}

// Abort discards pending items and closes the receive channel.
// It's safe to call multiple times and after Close.
func (b *Unbounded[T]) Abort() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.aborted {
		return
	}

	b.aborted = true
	b.items = nil
	close(b.abort)
	b.cond.Signal()
}

// Done returns a channel closed when Abort is called.
func (b *Unbounded[T]) Done() <-chan struct{} {
	return b.abort
}

// Len returns the current number of items in the buffer.
// This is primarily useful for testing and debugging.
func (b *Unbounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// IsClosed returns true if the buffer has been closed or aborted.
func (b *Unbounded[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed || b.aborted
}
