// Package benchmarks provides shared helpers for store benchmarks.
package benchmarks

import (
	"github.com/comalice/unistore"
)

// Counter is the benchmark state.
type Counter struct {
	N     int
	Calls int
}

// Add is the benchmark action.
type Add int

// CounterReducer adds Add actions to N.
func CounterReducer(state Counter, action any) Counter {
	if a, ok := action.(Add); ok {
		state.N += int(a)
	}
	return state
}

// CallReducer counts every action it sees.
func CallReducer(state Counter, _ any) Counter {
	state.Calls++
	return state
}

// Reducers returns n reducers alternating between CounterReducer and CallReducer.
func Reducers(n int) []unistore.Reducer[Counter] {
	out := make([]unistore.Reducer[Counter], 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, CounterReducer)
		} else {
			out = append(out, CallReducer)
		}
	}
	return out
}

type noopMiddleware struct{}

func (*noopMiddleware) Intercept(unistore.Phase, unistore.Handle[Counter], Counter, any) {}

// Middleware returns n distinct no-op middleware.
func Middleware(n int) []unistore.Middleware[Counter] {
	out := make([]unistore.Middleware[Counter], n)
	for i := range out {
		out[i] = &noopMiddleware{}
	}
	return out
}
