// Package source adapts external event streams into action sequences for
// Store.DispatchAll.
package source

import (
	"context"
	"iter"
	"time"
)

// Channel yields every value received on ch until ch is closed.
func Channel[A any](ch <-chan A) iter.Seq[any] {
	return func(yield func(any) bool) {
		for v := range ch {
			if !yield(v) {
				return
			}
		}
	}
}

// Values yields the given actions in order.
func Values(actions ...any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, a := range actions {
			if !yield(a) {
				return
			}
		}
	}
}

// Ticker yields produce(n) every d, with n counting from 1, until ctx is
// done. A nil result from produce is skipped.
func Ticker(ctx context.Context, d time.Duration, produce func(tick int) any) iter.Seq[any] {
	return func(yield func(any) bool) {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			action := produce(n)
			if action == nil {
				continue
			}
			if !yield(action) {
				return
			}
		}
	}
}

// Take yields at most n actions of seq.
func Take(seq iter.Seq[any], n int) iter.Seq[any] {
	return func(yield func(any) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for a := range seq {
			if !yield(a) {
				return
			}
			i++
			if i == n {
				return
			}
		}
	}
}
