// Package unistore provides a unidirectional state container.
//
// A Store owns one piece of application state. The state only changes by
// dispatching actions: a single writer goroutine pulls actions from a bounded
// queue, runs them through the middleware and the reducer, and publishes the
// result to every subscriber before the next action is taken.
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	s := unistore.New(ctx, 0, func(state int, action any) int {
//		if n, ok := action.(int); ok {
//			return state + n
//		}
//		return state
//	})
//	_ = s.Dispatch(ctx, 3)
//	s.TryDispatch(4)
//
// Reducers are pure and run only on the writer goroutine, so state never
// needs its own lock. Middleware observes every transition twice, before and
// after the reducer, and may dispatch follow-up actions; those are queued,
// never applied inline.
package unistore

import (
	"context"
	"iter"

	"github.com/comalice/unistore/internal/broadcast"
)

// Phase marks when a middleware runs relative to the reducer.
type Phase int

const (
	BeforeReduce Phase = iota
	AfterReduced
)

func (p Phase) String() string {
	switch p {
	case BeforeReduce:
		return "before-reduce"
	case AfterReduced:
		return "after-reduced"
	default:
		return "unknown"
	}
}

// Middleware observes transitions. It receives the pre-reduction state with
// BeforeReduce and the post-reduction state with AfterReduced. It must not
// rely on changing the state produced for the current action; to cause a
// change, dispatch another action through store.
type Middleware[S any] interface {
	Intercept(phase Phase, store Handle[S], state S, action any)
}

// MiddlewareFunc adapts a function to Middleware.
// Function values are not comparable, so a MiddlewareFunc cannot be removed:
// RemoveMiddleware logs a warning and returns false. Register a pointer type
// when removal is needed.
type MiddlewareFunc[S any] func(phase Phase, store Handle[S], state S, action any)

// Intercept calls f.
func (f MiddlewareFunc[S]) Intercept(phase Phase, store Handle[S], state S, action any) {
	if f != nil {
		f(phase, store, state, action)
	}
}

// Subscription is an observer of a store's states.
type Subscription[S any] = broadcast.Subscription[S]

// Handle is the capability surface shared by a Store and the handle passed
// to middleware.
type Handle[S any] interface {
	// ID identifies the store in logs and traces.
	ID() string
	// CurrentState returns the most recently published state.
	CurrentState() S
	// Subscribe returns a replay-latest subscription to states.
	Subscribe() *Subscription[S]

	// Dispatch enqueues action. It returns once the queue accepts it, not
	// once it is processed.
	Dispatch(ctx context.Context, action any) error
	// TryDispatch enqueues action without waiting.
	TryDispatch(action any) bool
	// DispatchAll dispatches every action of seq in order.
	DispatchAll(ctx context.Context, seq iter.Seq[any]) error
	// SetState replaces the state through the ordinary action pipeline.
	SetState(ctx context.Context, produce func() S) error
	// TrySetState is the non-blocking variant of SetState.
	TrySetState(produce func() S) bool

	AddMiddleware(m Middleware[S])
	RemoveMiddleware(m Middleware[S]) bool
}

// DispatchSeq dispatches a typed sequence of actions in order, stopping at
// the first error.
func DispatchSeq[S, A any](ctx context.Context, h Handle[S], seq iter.Seq[A]) error {
	for action := range seq {
		if err := h.Dispatch(ctx, action); err != nil {
			return err
		}
	}
	return nil
}
