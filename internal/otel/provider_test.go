package otel

import (
	"context"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	tp, shutdown, err := Setup(context.Background(), Options{ServiceName: "unistore-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tp.(*sdktrace.TracerProvider); ok {
		t.Error("empty endpoint returned an SDK provider")
	}
	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	if span.IsRecording() {
		t.Error("noop provider records spans")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetup_SDKProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	tp, shutdown, err := Setup(context.Background(), Options{
		ServiceName:    "unistore-test",
		ServiceVersion: "v0.0.1",
		Endpoint:       "http://192.0.2.1:4318",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tp.(*sdktrace.TracerProvider); !ok {
		t.Errorf("provider = %T, want *sdktrace.TracerProvider", tp)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{-2, "AlwaysOnSampler"},
		{0.25, "ParentBased"},
	}
	for _, tt := range tests {
		if got := sampler(tt.ratio).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tt.ratio, got, tt.want)
		}
	}
}
