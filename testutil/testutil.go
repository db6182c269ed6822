// Package testutil bridges asynchronous store behavior into synchronous tests.
//
// Nothing here is meant for production code paths.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/comalice/unistore"
)

// DefaultTimeout bounds every helper that waits on a store.
const DefaultTimeout = 2 * time.Second

// Subscriber is anything that exposes a store's state stream.
type Subscriber[S any] interface {
	Subscribe() *unistore.Subscription[S]
}

// RunBlocking runs body on its own goroutine and waits for it to return.
// The body's ctx is cancelled after timeout; if the body has not returned by
// then the test fails. A panic in body fails the test instead of crashing it.
func RunBlocking[T any](t testing.TB, timeout time.Duration, body func(ctx context.Context) T) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type result struct {
		value T
		panic any
	}
	out := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			r.panic = recover()
			out <- r
		}()
		r.value = body(ctx)
	}()

	select {
	case r := <-out:
		if r.panic != nil {
			t.Fatalf("RunBlocking: body panicked: %v", r.panic)
		}
		return r.value
	case <-time.After(timeout + 100*time.Millisecond):
		t.Fatalf("RunBlocking: body did not return within %v", timeout)
	}
	var zero T
	return zero
}

// AwaitState waits until the store publishes a state satisfying pred and
// returns it. The current state is checked first.
func AwaitState[S any](t testing.TB, s Subscriber[S], pred func(S) bool, timeout time.Duration) S {
	t.Helper()
	sub := s.Subscribe()
	defer sub.Close()

	deadline := time.After(timeout)
	var last S
	for {
		select {
		case v, ok := <-sub.C():
			if !ok {
				t.Fatalf("AwaitState: store closed; last state %v", last)
				return last
			}
			last = v
			if pred(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("AwaitState: no matching state within %v; last state %v", timeout, last)
			return last
		}
	}
}

// CollectStates returns the first n values observed on a fresh
// subscription, starting with the replayed current state. Conflation means
// intermediate states may be skipped; use StateLog to see every state.
func CollectStates[S any](t testing.TB, s Subscriber[S], n int, timeout time.Duration) []S {
	t.Helper()
	sub := s.Subscribe()
	defer sub.Close()

	deadline := time.After(timeout)
	out := make([]S, 0, n)
	for len(out) < n {
		select {
		case v, ok := <-sub.C():
			if !ok {
				t.Fatalf("CollectStates: store closed after %d of %d states: %v", len(out), n, out)
				return out
			}
			out = append(out, v)
		case <-deadline:
			t.Fatalf("CollectStates: got %d of %d states within %v: %v", len(out), n, timeout, out)
			return out
		}
	}
	return out
}

// AwaitDone waits for a store (or anything with Done) to tear down.
func AwaitDone(t testing.TB, s interface{ Done() <-chan struct{} }, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(timeout):
		t.Fatalf("AwaitDone: not torn down within %v", timeout)
	}
}

// StateLog is a middleware that records every post-reduction state and
// action. Unlike a subscription it never skips intermediate states.
type StateLog[S any] struct {
	mu      sync.Mutex
	states  []S
	actions []any
	changed chan struct{}
}

// NewStateLog creates an empty log.
func NewStateLog[S any]() *StateLog[S] {
	return &StateLog[S]{changed: make(chan struct{}, 1)}
}

// Intercept implements unistore.Middleware.
func (l *StateLog[S]) Intercept(phase unistore.Phase, _ unistore.Handle[S], state S, action any) {
	if phase != unistore.AfterReduced {
		return
	}
	l.mu.Lock()
	l.states = append(l.states, state)
	l.actions = append(l.actions, action)
	l.mu.Unlock()
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// States returns a copy of the recorded states.
func (l *StateLog[S]) States() []S {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]S(nil), l.states...)
}

// Actions returns a copy of the recorded actions.
func (l *StateLog[S]) Actions() []any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]any(nil), l.actions...)
}

// Wait blocks until at least n states are recorded and returns them.
func (l *StateLog[S]) Wait(t testing.TB, n int, timeout time.Duration) []S {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if states := l.States(); len(states) >= n {
			return states
		}
		select {
		case <-l.changed:
		case <-deadline:
			t.Fatalf("StateLog.Wait: %s", l.describe(n))
			return nil
		}
	}
}

func (l *StateLog[S]) describe(n int) string {
	states := l.States()
	return fmt.Sprintf("want %d states, got %d: %v", n, len(states), states)
}
