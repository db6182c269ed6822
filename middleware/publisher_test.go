package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/unistore/middleware"
)

func TestPublisher_Delivery(t *testing.T) {
	ch := make(chan middleware.Transition[account], 10)
	p := middleware.NewPublisher[account](ch)
	s, states, _ := newBank(t, "bank-pub", p)

	if err := s.Dispatch(context.Background(), Deposit{Amount: 25}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	states.Wait(t, 1, timeout)

	select {
	case got := <-ch:
		if got.StoreID != "bank-pub" {
			t.Errorf("StoreID = %q", got.StoreID)
		}
		if got.Kind != "Deposit" {
			t.Errorf("Kind = %q, want Deposit", got.Kind)
		}
		if got.Before.Balance != 0 || got.After.Balance != 25 {
			t.Errorf("Before/After = %d/%d, want 0/25", got.Before.Balance, got.After.Balance)
		}
		if got.Action != (Deposit{Amount: 25}) {
			t.Errorf("Action = %v", got.Action)
		}
	case <-time.After(timeout):
		t.Fatal("no transition published")
	}
}

func TestPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan middleware.Transition[account], 1)
	p := middleware.NewPublisher[account](ch)
	s, states, _ := newBank(t, "bank-drop", p)

	for i := 1; i <= 3; i++ {
		if err := s.Dispatch(context.Background(), Deposit{Amount: i}); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	states.Wait(t, 3, timeout)

	if got := p.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	first := <-ch
	if first.After.Balance != 1 {
		t.Errorf("kept transition after = %d, want 1", first.After.Balance)
	}
}

func TestPublisher_Close(t *testing.T) {
	ch := make(chan middleware.Transition[account], 1)
	p := middleware.NewPublisher[account](ch)
	s, states, _ := newBank(t, "bank-close", p)

	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed")
	}

	// A closed publisher ignores later transitions instead of panicking.
	if err := s.Dispatch(context.Background(), Deposit{Amount: 1}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	states.Wait(t, 1, timeout)
	if p.Dropped() != 0 {
		t.Errorf("Dropped() = %d after close", p.Dropped())
	}
}
