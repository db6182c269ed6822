package unistore

import (
	"reflect"
	"slices"
	"sync"
)

// engine binds the composed reducer and the ordered middleware into a single
// "apply one action" operation. It holds no state besides those references.
type engine[S any] struct {
	reducer internalReducer[S]

	mu         sync.RWMutex
	middleware []Middleware[S]
}

func newEngine[S any](reducer Reducer[S], middleware []Middleware[S]) *engine[S] {
	e := &engine[S]{reducer: compose(reducer)}
	for _, m := range middleware {
		if m != nil {
			e.middleware = append(e.middleware, m)
		}
	}
	return e
}

func (e *engine[S]) add(m Middleware[S]) {
	if m == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Copy on write: a transition in flight keeps iterating its own snapshot.
	e.middleware = append(slices.Clip(e.middleware), m)
}

func (e *engine[S]) remove(m Middleware[S]) bool {
	if m == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.middleware {
		if sameMiddleware(cur, m) {
			e.middleware = slices.Delete(slices.Clone(e.middleware), i, i+1)
			return true
		}
	}
	return false
}

func (e *engine[S]) snapshot() []Middleware[S] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.middleware
}

// apply runs one transition: every middleware with BeforeReduce, the
// reducer, then every middleware with AfterReduced. A panic in any stage
// stops the transition and is returned as a *TransitionError.
func (e *engine[S]) apply(h Handle[S], state S, act envelope[S]) (next S, err *TransitionError) {
	observed := act.observed()
	stage := StageBeforeReduce
	defer func() {
		if r := recover(); r != nil {
			next = state
			err = newTransitionError(observed, stage, r)
		}
	}()

	chain := e.snapshot()
	for _, m := range chain {
		m.Intercept(BeforeReduce, h, state, observed)
	}

	stage = StageReduce
	next = e.reducer(state, act)

	stage = StageAfterReduced
	for _, m := range chain {
		m.Intercept(AfterReduced, h, next, observed)
	}
	return next, nil
}

// sameMiddleware compares two middleware values without panicking. A value
// holding a func, map or slice anywhere inside it never matches.
func sameMiddleware[S any](a, b Middleware[S]) bool {
	if !removable(a) || !removable(b) || reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a == b
}

// removable reports whether m can be matched by RemoveMiddleware. It checks
// the dynamic value, so a comparable struct wrapping a MiddlewareFunc in an
// interface field is not removable.
func removable[S any](m Middleware[S]) bool {
	return m != nil && reflect.ValueOf(m).Comparable()
}
