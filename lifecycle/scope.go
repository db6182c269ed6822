// Package lifecycle provides a cancellation scope that owns stores.
//
// Stores take their context from a Scope; cancelling the scope tears every
// store down, and Wait blocks until they have all finished.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is the cancellation cause of a scope closed with Close.
var ErrClosed = errors.New("lifecycle: scope closed")

// Tracked is anything that signals its own teardown.
type Tracked interface {
	Done() <-chan struct{}
}

// Scope is a cancellable context plus the set of components living in it.
type Scope struct {
	id     string
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu      sync.Mutex
	tracked []Tracked
}

// New creates a scope derived from parent.
func New(parent context.Context) *Scope {
	ctx, cancel := context.WithCancelCause(parent)
	return &Scope{id: uuid.NewString(), ctx: ctx, cancel: cancel}
}

// ID returns the scope identifier.
func (s *Scope) ID() string { return s.id }

// Context returns the scope's context. Pass it to unistore.New.
func (s *Scope) Context() context.Context { return s.ctx }

// Cancel cancels the scope with cause. A nil cause means context.Canceled.
func (s *Scope) Cancel(cause error) { s.cancel(cause) }

// Err returns the cancellation cause, or nil while the scope is live.
func (s *Scope) Err() error {
	if s.ctx.Err() == nil {
		return nil
	}
	return context.Cause(s.ctx)
}

// Track registers c so Wait also waits for it.
func (s *Scope) Track(c Tracked) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, c)
}

// Wait blocks until every tracked component is done or ctx ends.
func (s *Scope) Wait(ctx context.Context) error {
	s.mu.Lock()
	tracked := append([]Tracked(nil), s.tracked...)
	s.mu.Unlock()

	for i, c := range tracked {
		select {
		case <-c.Done():
		case <-ctx.Done():
			return fmt.Errorf("wait for %d of %d components: %w", len(tracked)-i, len(tracked), ctx.Err())
		}
	}
	return nil
}

// Close cancels the scope with ErrClosed and waits for tracked components.
func (s *Scope) Close(ctx context.Context) error {
	s.cancel(ErrClosed)
	return s.Wait(ctx)
}
