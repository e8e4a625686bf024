package spinx

import (
	"testing"
)

func TestExpBackoffBoundMonotonic(t *testing.T) {
	cfg := BackoffConfig{MinIters: 4, MaxIters: 64, MaxWaitIters: 1 << 20}
	b := newExpBackoff(cfg)
	if b.bound != cfg.MinIters {
		t.Fatalf("initial bound = %d, want %d", b.bound, cfg.MinIters)
	}
	prev := b.bound
	for range 16 {
		b.wait()
		if b.bound < prev {
			t.Fatalf("bound decreased: %d -> %d", prev, b.bound)
		}
		if b.bound > cfg.MaxIters {
			t.Fatalf("bound %d exceeds cap %d", b.bound, cfg.MaxIters)
		}
		prev = b.bound
	}
	if b.bound != cfg.MaxIters {
		t.Fatalf("bound = %d after 16 waits, want cap %d", b.bound, cfg.MaxIters)
	}
}

// Each acquisition attempt starts over at MinIters; the bound never
// persists across attempts.
func TestExpBackoffResetsPerAttempt(t *testing.T) {
	cfg := BackoffConfig{MinIters: 4, MaxIters: 64, MaxWaitIters: 1 << 20}
	b := newExpBackoff(cfg)
	for range 8 {
		b.wait()
	}
	b = newExpBackoff(cfg)
	if b.bound != cfg.MinIters {
		t.Fatalf("fresh attempt bound = %d, want %d", b.bound, cfg.MinIters)
	}
}

func TestExpBackoffIndependentStreams(t *testing.T) {
	cfg := DefaultBackoff()
	a := newExpBackoff(cfg)
	b := newExpBackoff(cfg)
	same := 0
	for range 32 {
		if a.next() == b.next() {
			same++
		}
	}
	if same == 32 {
		t.Fatal("two backoff streams produced identical sequences")
	}
}

func TestBackoffConfigValidate(t *testing.T) {
	if err := DefaultBackoff().validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	bad := BackoffConfig{MinIters: 100, MaxIters: 10, MaxWaitIters: 10}
	if err := bad.validate(); err == nil {
		t.Fatal("Min > Max accepted")
	}
}
