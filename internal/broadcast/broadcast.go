// Package broadcast provides a hot, replay-latest multicast of values.
//
// A single publisher never blocks on subscribers. Each subscriber owns a
// one-slot channel; a value the subscriber has not read yet is replaced by
// the newer one, so slow readers skip intermediate values instead of
// stalling the publisher.
package broadcast

import "sync"

// Broadcast holds the latest value and the live subscriptions.
type Broadcast[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// New creates a broadcast whose first observable value is initial.
func New[T any](initial T) *Broadcast[T] {
	return &Broadcast[T]{
		value: initial,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Value returns the latest published value.
func (b *Broadcast[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Publish records v as the latest value and offers it to every subscriber.
// Publishing after Close is a no-op.
func (b *Broadcast[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.value = v
	for s := range b.subs {
		s.offer(v)
	}
}

// Subscribe returns a subscription whose channel already holds the latest value.
// Subscribing to a closed broadcast yields the final value followed by a closed channel.
func (b *Broadcast[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscription[T]{b: b, ch: make(chan T, 1)}
	s.ch <- b.value
	if b.closed {
		close(s.ch)
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Len returns the number of live subscriptions.
func (b *Broadcast[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Safe to call multiple times.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.closed = true
		close(s.ch)
	}
	clear(b.subs)
}

// Subscription is one observer of a Broadcast.
type Subscription[T any] struct {
	b      *Broadcast[T]
	ch     chan T
	closed bool // guarded by b.mu
}

// C returns the channel of values. It is closed when either the
// subscription or the broadcast is closed.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Close detaches the subscription. Other subscribers are unaffected.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.b.subs, s)
	close(s.ch)
}

// offer must be called with b.mu held.
func (s *Subscription[T]) offer(v T) {
	for {
		select {
		case s.ch <- v:
			return
		default:
		}
		// Replace the unread stale value.
		select {
		case <-s.ch:
		default:
		}
	}
}
