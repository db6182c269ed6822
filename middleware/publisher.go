package middleware

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/unistore"
)

// Transition is a completed transition forwarded by a Publisher.
type Transition[S any] struct {
	StoreID string
	Kind    string
	Action  any
	Before  S
	After   S
	At      time.Time
}

// Publisher forwards every completed transition to a Go channel.
// Non-blocking publish with drop on backpressure.
type Publisher[S any] struct {
	ch      chan<- Transition[S]
	dropped atomic.Uint64

	mu     sync.Mutex
	before map[string]S
	closed bool
}

// NewPublisher creates a Publisher sending on ch.
func NewPublisher[S any](ch chan<- Transition[S]) *Publisher[S] {
	return &Publisher[S]{ch: ch, before: make(map[string]S)}
}

// Intercept implements unistore.Middleware.
func (p *Publisher[S]) Intercept(phase unistore.Phase, store unistore.Handle[S], state S, action any) {
	id := store.ID()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	switch phase {
	case unistore.BeforeReduce:
		p.before[id] = state
	case unistore.AfterReduced:
		before := p.before[id]
		delete(p.before, id)
		t := Transition[S]{
			StoreID: id,
			Kind:    unistore.KindOf(action),
			Action:  action,
			Before:  before,
			After:   state,
			At:      time.Now(),
		}
		select {
		case p.ch <- t:
		default:
			p.dropped.Add(1)
		}
	}
}

// Dropped returns how many transitions were dropped on a full channel.
func (p *Publisher[S]) Dropped() uint64 { return p.dropped.Load() }

// Close stops publishing and closes the channel. Safe to call multiple times.
func (p *Publisher[S]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.ch)
	return nil
}
