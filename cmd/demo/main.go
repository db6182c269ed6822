// Command demo runs a counter store fed by a ticker until interrupted.
//
// Environment:
//
//	DEMO_TICK            tick interval (default 500ms)
//	DEMO_TICKS           stop after this many ticks, 0 for no limit (default 12)
//	DEMO_LOG_FILTER      expr-lang filter for the logging middleware
//	DEMO_RECORD          write a YAML journal to stdout
//	DEMO_OTEL_ENDPOINT   OTLP/HTTP endpoint; tracing is off when empty
//	DEMO_OTEL_SAMPLE_RATIO  share of transitions traced (default 1)
//
// plus the UNISTORE_* store variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/comalice/unistore"
	"github.com/comalice/unistore/internal/otel"
	"github.com/comalice/unistore/lifecycle"
	"github.com/comalice/unistore/middleware"
	"github.com/comalice/unistore/source"
)

type demoConfig struct {
	Tick         time.Duration `env:"DEMO_TICK" envDefault:"500ms"`
	Ticks        int           `env:"DEMO_TICKS" envDefault:"12"`
	LogFilter    string        `env:"DEMO_LOG_FILTER" envDefault:"phase == \"after-reduced\""`
	Record       bool          `env:"DEMO_RECORD" envDefault:"false"`
	OTelEndpoint string        `env:"DEMO_OTEL_ENDPOINT"`
	SampleRatio  float64       `env:"DEMO_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

type counter struct {
	Value   int
	Ticks   int
	Applied int // every action, including resets
}

type increment struct{ By int }

type reset struct{}

func reduce(state counter, action any) counter {
	switch a := action.(type) {
	case increment:
		state.Value += a.By
		state.Ticks++
	case reset:
		state.Value = 0
	}
	state.Applied++
	return state
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("demo: %v", err)
	}
}

func run() error {
	var cfg demoConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	storeCfg, err := unistore.LoadConfig()
	if err != nil {
		return err
	}
	if storeCfg.ID == "" {
		storeCfg.ID = "counter"
	}

	scope := lifecycle.New(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			fmt.Println("\nShutting down gracefully...")
			scope.Cancel(nil)
		case <-scope.Context().Done():
		}
	}()

	tp, shutdown, err := otel.Setup(scope.Context(), otel.Options{
		ServiceName: "unistore-demo",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	filter, err := middleware.NewFilter(cfg.LogFilter)
	if err != nil {
		return err
	}
	chain := []unistore.Middleware[counter]{
		middleware.When(filter, unistore.Middleware[counter](middleware.NewLogger[counter](nil))),
		middleware.NewTracer[counter](tp),
	}
	var journal *middleware.Recorder[counter]
	if cfg.Record {
		journal = middleware.NewRecorder[counter](os.Stdout, middleware.YAMLDocuments)
		chain = append(chain, journal)
	}

	store, err := unistore.NewWithConfig(scope.Context(), storeCfg, counter{}, reduce, chain...)
	if err != nil {
		return err
	}
	scope.Track(store)

	go func() {
		for state := range store.States(scope.Context()) {
			fmt.Printf("state: value=%d ticks=%d\n", state.Value, state.Ticks)
		}
	}()

	ticks := source.Ticker(scope.Context(), cfg.Tick, func(n int) any {
		if n%5 == 0 {
			return reset{}
		}
		return increment{By: n}
	})
	if cfg.Ticks > 0 {
		ticks = source.Take(ticks, cfg.Ticks)
	}
	sent := 0
	counted := func(yield func(any) bool) {
		for a := range ticks {
			if !yield(a) {
				return
			}
			sent++
		}
	}
	if err := store.DispatchAll(scope.Context(), counted); err != nil &&
		!errors.Is(err, unistore.ErrClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	if scope.Err() == nil {
		drain(store, sent, 5*time.Second)
		fmt.Println("Demo complete.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scope.Close(ctx); err != nil {
		return err
	}
	if journal != nil {
		if err := journal.Err(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	if err := store.Err(); err != nil && !errors.Is(err, lifecycle.ErrClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// drain waits until the store has applied or evicted all n dispatched
// actions, so closing the scope does not discard ticks still in the queue.
// It reports whether that happened before timeout.
func drain(store *unistore.Store[counter], n int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for state := range store.States(ctx) {
		if state.Applied+int(store.Dropped()) >= n {
			return true
		}
	}
	log.Printf("demo: %d actions still pending", store.Pending())
	return false
}
