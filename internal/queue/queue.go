// Package queue provides the bounded FIFO that feeds a store's writer goroutine.
//
// Any number of producers may push concurrently; a single consumer pops.
// The queue never grows past its capacity. What happens when it is full is
// decided once per queue by its Policy.
package queue

import (
	"context"
	"errors"
	"sync"
)

// Policy selects the behavior of Push when the queue is full.
type Policy int

const (
	// DropOldest evicts the head to admit the new item. Push never waits.
	DropOldest Policy = iota
	// Block makes Push wait until space frees up.
	Block
)

func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)

// Queue is a mutex-guarded ring buffer with channel wake-ups.
// Thread-safe for concurrent Push/TryPush from multiple goroutines.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	size    int
	policy  Policy
	closed  bool
	dropped uint64
	onDrop  func(T)

	ready chan struct{} // items available
	space chan struct{} // room freed (Block only)
	done  chan struct{}
}

// New creates a queue holding at most capacity items.
// onDrop, when non-nil, receives every item evicted under DropOldest.
// It runs with the queue lock held and must not call back into the queue.
func New[T any](capacity int, policy Policy, onDrop func(T)) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		items:  make([]T, capacity),
		policy: policy,
		onDrop: onDrop,
		ready:  make(chan struct{}, 1),
		space:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.items) }

// Policy returns the overflow policy.
func (q *Queue[T]) Policy() Policy { return q.policy }

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns how many items were evicted so far.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Push appends v. Under DropOldest it never waits; under Block it waits for
// space until ctx is done or the queue is closed.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	for {
		ok, err := q.offer(v)
		if err != nil || ok {
			return err
		}
		select {
		case <-q.space:
		case <-q.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryPush appends v without waiting. It returns ErrFull when a Block queue
// has no room and ErrClosed after Close.
func (q *Queue[T]) TryPush(v T) error {
	ok, err := q.offer(v)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFull
	}
	return nil
}

func (q *Queue[T]) offer(v T) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, ErrClosed
	}
	if q.size == len(q.items) {
		if q.policy != DropOldest {
			return false, nil
		}
		evicted := q.items[q.head]
		var zero T
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
		q.size--
		q.dropped++
		if q.onDrop != nil {
			q.onDrop(evicted)
		}
	}

	q.items[(q.head+q.size)%len(q.items)] = v
	q.size++
	signal(q.ready)
	if q.size < len(q.items) {
		// Pass the wake-up on to the next parked producer.
		signal(q.space)
	}
	return true, nil
}

// Pop removes and returns the head, waiting until an item is available,
// ctx is done or the queue is closed. Pending items are not returned after Close.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		v, ok, err := q.take()
		if err != nil || ok {
			return v, err
		}
		select {
		case <-q.ready:
		case <-q.done:
			var zero T
			return zero, ErrClosed
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

func (q *Queue[T]) take() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.closed {
		return zero, false, ErrClosed
	}
	if q.size == 0 {
		return zero, false, nil
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	signal(q.space)
	if q.size > 0 {
		signal(q.ready)
	}
	return v, true, nil
}

// Close discards pending items and releases every waiter.
// Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	clear(q.items)
	q.size = 0
	close(q.done)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
