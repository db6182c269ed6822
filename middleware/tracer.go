package middleware

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/unistore"
)

const instrumentationName = "github.com/comalice/unistore/middleware"

// Tracer records one span per transition, opened on BeforeReduce and ended
// on AfterReduced.
type Tracer[S any] struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span // open span by store ID
}

// NewTracer creates a Tracer from tp, or from the global provider when nil.
func NewTracer[S any](tp trace.TracerProvider) *Tracer[S] {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer[S]{
		tracer: tp.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

// Intercept implements unistore.Middleware.
func (t *Tracer[S]) Intercept(phase unistore.Phase, store unistore.Handle[S], _ S, action any) {
	id := store.ID()
	kind := unistore.KindOf(action)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch phase {
	case unistore.BeforeReduce:
		if stale, ok := t.spans[id]; ok {
			// The previous transition panicked before AfterReduced.
			stale.SetStatus(codes.Error, "transition did not complete")
			stale.End()
		}
		_, span := t.tracer.Start(context.Background(), "unistore.transition "+kind,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("unistore.store.id", id),
				attribute.String("unistore.action.kind", kind),
			),
		)
		t.spans[id] = span
	case unistore.AfterReduced:
		span, ok := t.spans[id]
		if !ok {
			return
		}
		delete(t.spans, id)
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}
