package unistore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"

	"github.com/google/uuid"

	"github.com/comalice/unistore/internal/broadcast"
	"github.com/comalice/unistore/internal/queue"
)

// Store is the state container actor.
// Thread-safe: any number of goroutines may dispatch, subscribe and read
// CurrentState while a single writer goroutine applies actions in queue order.
type Store[S any] struct {
	id     string
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	engine  *engine[S]
	queue   *queue.Queue[envelope[S]]
	states  *broadcast.Broadcast[S]
	writer  writerHandle[S]
	logger  *log.Logger
	onError func(*TransitionError) error
}

var _ Handle[int] = (*Store[int])(nil)

// New creates a store with DefaultConfig and starts its writer goroutine.
// The store runs until ctx is cancelled.
func New[S any](ctx context.Context, initial S, reducer Reducer[S], middleware ...Middleware[S]) *Store[S] {
	s, err := NewWithConfig(ctx, DefaultConfig(), initial, reducer, middleware...)
	if err != nil {
		panic(err) // unreachable: the default config is valid
	}
	return s
}

// NewWithConfig creates a store from cfg and starts its writer goroutine.
// The store runs until ctx is cancelled or a transition fails fatally.
func NewWithConfig[S any](ctx context.Context, cfg Config, initial S, reducer Reducer[S], middleware ...Middleware[S]) (*Store[S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := cfg.Overflow.policy()

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	sctx, cancel := context.WithCancelCause(ctx)
	s := &Store[S]{
		id:      id,
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		engine:  newEngine(reducer, middleware),
		states:  broadcast.New(initial),
		logger:  cfg.logger(),
		onError: cfg.OnError,
	}
	s.writer = writerHandle[S]{s}

	var onDrop func(envelope[S])
	if cfg.OnDrop != nil {
		onDrop = func(e envelope[S]) { cfg.OnDrop(e.observed()) }
	}
	s.queue = queue.New(cfg.Capacity, policy, onDrop)

	// The seed pair (initial, seed) is already folded: the broadcast starts
	// at initial and the seed action never reaches reducers or middleware.
	go s.run(initial)
	return s, nil
}

// run is the single writer. It pops one action, applies it, publishes the
// result and only then pops the next one.
func (s *Store[S]) run(state S) {
	defer s.teardown()
	for {
		if s.ctx.Err() != nil {
			return
		}
		act, err := s.queue.Pop(s.ctx)
		if err != nil {
			return
		}

		next, terr := s.engine.apply(s.writer, state, act)
		if terr != nil {
			if err := s.fail(terr); err != nil {
				s.cancel(err)
				return
			}
			continue
		}

		state = next
		s.states.Publish(next)
	}
}

func (s *Store[S]) fail(terr *TransitionError) error {
	if s.onError == nil {
		s.logger.Printf("unistore[%s] fatal: %v\n%s", s.id, terr, terr.Stack)
		return terr
	}
	if err := s.onError(terr); err != nil {
		s.logger.Printf("unistore[%s] fatal: %v", s.id, err)
		return err
	}
	s.logger.Printf("unistore[%s] discarded %s: %v", s.id, KindOf(terr.Action), terr.Value)
	return nil
}

func (s *Store[S]) teardown() {
	s.cancel(nil)
	s.queue.Close()
	s.states.Close()
	close(s.done)
}

// ID returns the store identifier.
func (s *Store[S]) ID() string { return s.id }

// CurrentState returns the most recently published state. Before any action
// is processed this is the initial state.
func (s *Store[S]) CurrentState() S { return s.states.Value() }

// Subscribe returns a subscription that immediately holds the current state
// and then receives every later state it can keep up with. Slow subscribers
// skip intermediate states; they never stall the store.
func (s *Store[S]) Subscribe() *Subscription[S] { return s.states.Subscribe() }

// States yields states from a fresh subscription until ctx is done, the
// store tears down or the loop breaks.
func (s *Store[S]) States(ctx context.Context) iter.Seq[S] {
	return func(yield func(S) bool) {
		sub := s.Subscribe()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-sub.C():
				if !ok || !yield(v) {
					return
				}
			}
		}
	}
}

// Done is closed once the store has torn down.
func (s *Store[S]) Done() <-chan struct{} { return s.done }

// Err returns the teardown cause once Done is closed, nil before.
func (s *Store[S]) Err() error {
	select {
	case <-s.done:
		return context.Cause(s.ctx)
	default:
		return nil
	}
}

// Dropped returns the number of actions evicted by the drop-oldest policy.
func (s *Store[S]) Dropped() uint64 { return s.queue.Dropped() }

// Pending returns the number of queued, unprocessed actions.
func (s *Store[S]) Pending() int { return s.queue.Len() }

// Dispatch enqueues action and returns once the queue has accepted it.
// Under OverflowBlock it waits for room until ctx is done.
func (s *Store[S]) Dispatch(ctx context.Context, action any) error {
	if isReserved[S](action) {
		return ErrReservedAction
	}
	return s.push(ctx, hostEnvelope[S](action))
}

// TryDispatch enqueues action without waiting. It reports false when the
// store is closed, the action is reserved, or a block-policy queue is full.
func (s *Store[S]) TryDispatch(action any) bool {
	if isReserved[S](action) {
		return false
	}
	return s.tryPush(hostEnvelope[S](action)) == nil
}

// DispatchAll dispatches the actions of seq in order as they are produced,
// stopping at the first error. seq may be unbounded; cancel ctx to stop.
func (s *Store[S]) DispatchAll(ctx context.Context, seq iter.Seq[any]) error {
	for action := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Dispatch(ctx, action); err != nil {
			return err
		}
	}
	return nil
}

// SetState computes a replacement state and pushes it through the pipeline.
// Middleware observes it as a StateReplaced action.
func (s *Store[S]) SetState(ctx context.Context, produce func() S) error {
	return s.push(ctx, setStateEnvelope(produce()))
}

// TrySetState is the non-blocking variant of SetState.
func (s *Store[S]) TrySetState(produce func() S) bool {
	return s.tryPush(setStateEnvelope(produce())) == nil
}

// AddMiddleware appends m. It applies from the next action the writer
// picks up after the call returns.
func (s *Store[S]) AddMiddleware(m Middleware[S]) { s.engine.add(m) }

// RemoveMiddleware removes the first registration equal to m and reports
// whether one was found. Values that are not comparable, such as a
// MiddlewareFunc, never match; the call is logged and returns false.
func (s *Store[S]) RemoveMiddleware(m Middleware[S]) bool {
	if m != nil && !removable(m) {
		s.logger.Printf("unistore[%s] cannot remove middleware %T: value is not comparable; register a pointer instead", s.id, m)
		return false
	}
	return s.engine.remove(m)
}

func (s *Store[S]) push(ctx context.Context, act envelope[S]) error {
	if s.ctx.Err() != nil {
		return s.closedErr()
	}
	if err := s.queue.Push(ctx, act); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return s.closedErr()
		}
		return err
	}
	return nil
}

func (s *Store[S]) tryPush(act envelope[S]) error {
	if s.ctx.Err() != nil {
		return s.closedErr()
	}
	switch err := s.queue.TryPush(act); {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrClosed):
		return s.closedErr()
	case errors.Is(err, queue.ErrFull):
		return ErrQueueFull
	default:
		return err
	}
}

func (s *Store[S]) closedErr() error {
	return fmt.Errorf("%w: %w", ErrClosed, context.Cause(s.ctx))
}

// writerHandle is the Handle given to middleware. It runs on the writer
// goroutine, so its dispatch operations never wait for queue space.
type writerHandle[S any] struct {
	*Store[S]
}

func (w writerHandle[S]) Dispatch(_ context.Context, action any) error {
	if isReserved[S](action) {
		return ErrReservedAction
	}
	return w.tryPush(hostEnvelope[S](action))
}

func (w writerHandle[S]) DispatchAll(ctx context.Context, seq iter.Seq[any]) error {
	for action := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Dispatch(ctx, action); err != nil {
			return err
		}
	}
	return nil
}

func (w writerHandle[S]) SetState(_ context.Context, produce func() S) error {
	return w.tryPush(setStateEnvelope(produce()))
}
