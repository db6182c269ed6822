package middleware

import (
	"fmt"
	"sync/atomic"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/comalice/unistore"
)

// Filter is a compiled boolean expr-lang expression over a transition.
// The expression sees these variables:
//
//	phase   "before-reduce" or "after-reduced"
//	kind    unistore.KindOf(action)
//	action  the action value (fields are accessible, e.g. action.Amount)
//	state   the state passed to the middleware
//	store   the store ID
//
// Example: `kind == "Deposit" && action.Amount > 100`.
type Filter struct {
	expression string
	program    *exprvm.Program
	errors     atomic.Uint64
}

// NewFilter compiles expression once.
func NewFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, fmt.Errorf("filter: expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// MustFilter is like NewFilter but panics on a compile error.
func MustFilter(expression string) *Filter {
	f, err := NewFilter(expression)
	if err != nil {
		panic(err)
	}
	return f
}

// Match evaluates the filter for one middleware call.
func (f *Filter) Match(phase unistore.Phase, storeID string, state, action any) (bool, error) {
	env := map[string]any{
		"phase":  phase.String(),
		"kind":   unistore.KindOf(action),
		"action": action,
		"state":  state,
		"store":  storeID,
	}
	out, err := exprlang.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expression, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q: result %T is not a bool", f.expression, out)
	}
	return matched, nil
}

// Errors returns how many evaluations failed inside When.
func (f *Filter) Errors() uint64 { return f.errors.Load() }

func (f *Filter) String() string { return f.expression }

// Conditional forwards to its inner middleware only when its filter matches.
type Conditional[S any] struct {
	filter *Filter
	inner  unistore.Middleware[S]
}

// When wraps inner so it only sees calls matching filter. An evaluation
// error counts as no match and is recorded in filter.Errors().
func When[S any](filter *Filter, inner unistore.Middleware[S]) *Conditional[S] {
	return &Conditional[S]{filter: filter, inner: inner}
}

// Intercept implements unistore.Middleware.
func (c *Conditional[S]) Intercept(phase unistore.Phase, store unistore.Handle[S], state S, action any) {
	matched, err := c.filter.Match(phase, store.ID(), state, action)
	if err != nil {
		c.filter.errors.Add(1)
		return
	}
	if matched {
		c.inner.Intercept(phase, store, state, action)
	}
}
