package unistore

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/comalice/unistore/internal/queue"
)

// DefaultCapacity is the number of pending actions a store queues by default.
const DefaultCapacity = 16

// Overflow names the policy applied when the action queue is full.
type Overflow string

const (
	// OverflowDropOldest evicts the oldest pending action to admit the newest.
	// Dispatch never waits and TryDispatch always succeeds.
	OverflowDropOldest Overflow = "drop-oldest"
	// OverflowBlock makes Dispatch wait for room; TryDispatch reports false.
	OverflowBlock Overflow = "block"
)

func (o Overflow) policy() (queue.Policy, error) {
	switch o {
	case OverflowDropOldest, "":
		return queue.DropOldest, nil
	case OverflowBlock:
		return queue.Block, nil
	default:
		return 0, fmt.Errorf("%w: unknown overflow policy %q", ErrInvalidConfig, string(o))
	}
}

// Config configures a Store. The tagged fields can be loaded from the
// environment with LoadConfig.
type Config struct {
	ID       string   `env:"UNISTORE_STORE_ID"`
	Capacity int      `env:"UNISTORE_QUEUE_CAPACITY" envDefault:"16"`
	Overflow Overflow `env:"UNISTORE_OVERFLOW" envDefault:"drop-oldest"`

	// Logger receives teardown, eviction and failure messages.
	// Nil means log.Default().
	Logger *log.Logger
	// OnError decides the fate of a failed transition. Returning nil discards
	// the action and keeps the previous state; returning an error tears the
	// store down with it. Nil means every failure is fatal.
	OnError func(*TransitionError) error
	// OnDrop observes actions evicted under OverflowDropOldest. It runs on the
	// dispatching goroutine and must not dispatch.
	OnDrop func(action any)
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Overflow: OverflowDropOldest,
	}
}

// LoadConfig reads a Config from UNISTORE_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration can build a store.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if _, err := c.Overflow.policy(); err != nil {
		return err
	}
	return nil
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}
