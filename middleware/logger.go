package middleware

import (
	"log"
	"sync"
	"time"

	"github.com/comalice/unistore"
)

// Logger logs both phases of every transition.
type Logger[S any] struct {
	logger *log.Logger

	mu      sync.Mutex
	started map[string]time.Time // by store ID
}

// NewLogger creates a Logger writing to logger, or to log.Default() when nil.
func NewLogger[S any](logger *log.Logger) *Logger[S] {
	if logger == nil {
		logger = log.Default()
	}
	return &Logger[S]{logger: logger, started: make(map[string]time.Time)}
}

// Intercept implements unistore.Middleware.
func (l *Logger[S]) Intercept(phase unistore.Phase, store unistore.Handle[S], state S, action any) {
	id := store.ID()
	kind := unistore.KindOf(action)

	switch phase {
	case unistore.BeforeReduce:
		l.mu.Lock()
		l.started[id] = time.Now()
		l.mu.Unlock()
		l.logger.Printf("unistore[%s] %s %s state=%+v", id, phase, kind, state)
	case unistore.AfterReduced:
		l.mu.Lock()
		start, ok := l.started[id]
		delete(l.started, id)
		l.mu.Unlock()
		if !ok {
			l.logger.Printf("unistore[%s] %s %s state=%+v", id, phase, kind, state)
			return
		}
		l.logger.Printf("unistore[%s] %s %s state=%+v in %v", id, phase, kind, state, time.Since(start))
	}
}
