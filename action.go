package unistore

import (
	"fmt"
	"reflect"
)

// Kinded lets an action name its own kind.
type Kinded interface {
	Kind() string
}

// KindOf returns the effective kind of an action: its Kind() when it
// implements Kinded, otherwise its Go type name.
func KindOf(action any) string {
	switch a := action.(type) {
	case nil:
		return "<nil>"
	case Kinded:
		return a.Kind()
	}
	t := reflect.TypeOf(action)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// StateReplaced is what middleware observes for a SetState transition.
// Its zero value carries no state; dispatching one is rejected with
// ErrReservedAction.
type StateReplaced[S any] struct {
	state S
}

// State returns the replacement state.
func (a StateReplaced[S]) State() S { return a.state }

// Kind implements Kinded.
func (StateReplaced[S]) Kind() string { return "StateReplaced" }

func (a StateReplaced[S]) String() string {
	return fmt.Sprintf("StateReplaced(%v)", a.state)
}

type actionKind uint8

const (
	// seedAction is the zero envelope. The seed is folded into the initial
	// broadcast, so it is never queued; reducers treat it as a no-op.
	seedAction actionKind = iota
	hostAction
	setStateAction
)

// envelope tags every queued action. Only hostAction carries host values;
// the other variants cannot be built outside this package.
type envelope[S any] struct {
	kind  actionKind
	value any
	state S
}

func hostEnvelope[S any](action any) envelope[S] {
	return envelope[S]{kind: hostAction, value: action}
}

func setStateEnvelope[S any](state S) envelope[S] {
	return envelope[S]{kind: setStateAction, state: state}
}

// observed is the action value handed to middleware.
func (e envelope[S]) observed() any {
	switch e.kind {
	case hostAction:
		return e.value
	case setStateAction:
		return StateReplaced[S]{state: e.state}
	default:
		return nil
	}
}

func isReserved[S any](action any) bool {
	switch action.(type) {
	case StateReplaced[S], *StateReplaced[S]:
		return true
	}
	return false
}
