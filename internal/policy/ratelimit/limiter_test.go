package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(cfg)
	l.now = clock.Now
	l.lastPrune = clock.now
	return l, clock
}

func TestLimiter_AllowBurstThenRefill(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(Config{RPS: 1, Burst: 2})

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("expected third request to be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("expected other clients to have their own bucket")
	}

	clock.now = clock.now.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("expected a token after one second")
	}
}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(Config{})
	for i := 0; i < 100; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestLimiter_PrunesIdleClients(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(Config{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", l.Len())
	}

	clock.now = clock.now.Add(2 * time.Minute)
	l.Allow("c")
	if l.Len() != 1 {
		t.Fatalf("expected idle clients to be pruned, got %d", l.Len())
	}
}
