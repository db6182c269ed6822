package unistore

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrClosed is returned by dispatch operations after the store has torn down.
	// The returned error also wraps the teardown cause.
	ErrClosed = errors.New("store closed")
	// ErrReservedAction rejects host attempts to dispatch a reserved action.
	ErrReservedAction = errors.New("reserved action cannot be dispatched")
	// ErrQueueFull is returned by a middleware's blocking dispatch when a
	// block-policy queue has no room; waiting would stall the writer.
	ErrQueueFull = errors.New("action queue full")
	// ErrInvalidConfig reports a rejected Config.
	ErrInvalidConfig = errors.New("invalid store config")
)

// Stage identifies where a transition failed.
type Stage string

const (
	StageBeforeReduce Stage = "before-reduce"
	StageReduce       Stage = "reduce"
	StageAfterReduced Stage = "after-reduced"
)

// TransitionError reports a panic raised by a reducer or middleware while
// applying one action.
type TransitionError struct {
	Action any    // the action as middleware observed it
	Stage  Stage  // where the panic happened
	Value  any    // the recovered panic value
	Stack  []byte // stack at the point of recovery
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s failed at %s: %v", KindOf(e.Action), e.Stage, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *TransitionError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newTransitionError(action any, stage Stage, value any) *TransitionError {
	return &TransitionError{
		Action: action,
		Stage:  stage,
		Value:  value,
		Stack:  debug.Stack(),
	}
}
