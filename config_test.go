package unistore

import (
	"errors"
	"strings"
	"testing"

	"github.com/comalice/unistore/internal/queue"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Capacity != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", cfg.Capacity, DefaultCapacity)
	}
	if cfg.Overflow != OverflowDropOldest {
		t.Errorf("Overflow = %q, want %q", cfg.Overflow, OverflowDropOldest)
	}
	if cfg.ID != "" {
		t.Errorf("ID = %q, want empty", cfg.ID)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("UNISTORE_STORE_ID", "cart")
	t.Setenv("UNISTORE_QUEUE_CAPACITY", "64")
	t.Setenv("UNISTORE_OVERFLOW", "block")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ID != "cart" || cfg.Capacity != 64 || cfg.Overflow != OverflowBlock {
		t.Errorf("cfg = %+v", cfg)
	}
	p, err := cfg.Overflow.policy()
	if err != nil || p != queue.Block {
		t.Errorf("policy() = %v, %v", p, err)
	}
}

func TestLoadConfig_ParseError(t *testing.T) {
	t.Setenv("UNISTORE_QUEUE_CAPACITY", "lots")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("expected parse env prefix, got %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("UNISTORE_OVERFLOW", "drop-newest")

	_, err := LoadConfig()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"empty overflow means drop-oldest", Config{Capacity: 1}, false},
		{"zero capacity", Config{Overflow: OverflowBlock}, true},
		{"negative capacity", Config{Capacity: -3}, true},
		{"unknown overflow", Config{Capacity: 4, Overflow: "random"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
