package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func drain(t *testing.T, q *Queue[int]) []int {
	t.Helper()
	var got []int
	for q.Len() > 0 {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	return got
}

func TestQueue_FIFO(t *testing.T) {
	q := New[int](4, DropOldest, nil)
	for i := 1; i <= 3; i++ {
		if err := q.Push(context.Background(), i); err != nil {
			t.Fatal(err)
		}
	}
	got := drain(t, q)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestQueue_DropOldest(t *testing.T) {
	var evicted []int
	q := New[int](3, DropOldest, func(v int) { evicted = append(evicted, v) })

	for i := 1; i <= 5; i++ {
		if err := q.TryPush(i); err != nil {
			t.Fatalf("TryPush(%d): %v", i, err)
		}
	}

	if got := q.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if len(evicted) != 2 || evicted[0] != 1 || evicted[1] != 2 {
		t.Errorf("evicted = %v, want [1 2]", evicted)
	}
	got := drain(t, q)
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Errorf("remaining = %v, want [3 4 5]", got)
	}
}

func TestQueue_BlockTryPushFull(t *testing.T) {
	q := New[int](1, Block, nil)
	if err := q.TryPush(1); err != nil {
		t.Fatal(err)
	}
	if err := q.TryPush(2); !errors.Is(err, ErrFull) {
		t.Errorf("TryPush on full block queue = %v, want ErrFull", err)
	}
}

func TestQueue_BlockPushWaitsForSpace(t *testing.T) {
	q := New[int](1, Block, nil)
	if err := q.Push(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Push(context.Background(), 2)
	}()

	select {
	case err := <-pushed:
		t.Fatalf("Push returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	if v, err := q.Pop(context.Background()); err != nil || v != 1 {
		t.Fatalf("Pop() = %d, %v", v, err)
	}

	select {
	case err := <-pushed:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Push was not released")
	}
	if v, err := q.Pop(context.Background()); err != nil || v != 2 {
		t.Errorf("Pop() = %d, %v; want 2", v, err)
	}
}

func TestQueue_BlockPushContextCancel(t *testing.T) {
	q := New[int](1, Block, nil)
	_ = q.TryPush(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Push(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Push() = %v, want deadline exceeded", err)
	}
}

func TestQueue_PopWaitsAndCloseReleases(t *testing.T) {
	q := New[int](2, DropOldest, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var popErr error
	go func() {
		defer wg.Done()
		_, popErr = q.Pop(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()

	if !errors.Is(popErr, ErrClosed) {
		t.Errorf("Pop after Close = %v, want ErrClosed", popErr)
	}
	if err := q.TryPush(1); !errors.Is(err, ErrClosed) {
		t.Errorf("TryPush after Close = %v, want ErrClosed", err)
	}
	q.Close() // idempotent
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 100
	q := New[int](producers*perProducer, Block, nil)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Push(context.Background(), i); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := q.Len(); got != producers*perProducer {
		t.Errorf("Len() = %d, want %d", got, producers*perProducer)
	}
}
