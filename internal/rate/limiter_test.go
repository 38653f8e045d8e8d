package rate

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func perMinuteLimiter(clock *fakeClock, budget float64, maxKeys int) *Limiter {
	return New(Config{
		Capacity:        budget,
		RefillPerSecond: budget / 60,
		MaxKeys:         maxKeys,
		Now:             clock.Now,
	})
}

func TestAllowExhaustsBudget(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 60, 0)

	for i := 0; i < 60; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("request 61 allowed over budget")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 60, 0)

	for i := 0; i < 60; i++ {
		limiter.Allow("10.0.0.1")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected empty bucket")
	}

	// One second drips one token at 60/min.
	clock.Advance(time.Second)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected one token after 1s refill")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected exactly one token after 1s refill")
	}
}

func TestAllowRefillCapsAtCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 5, 0)

	for i := 0; i < 5; i++ {
		limiter.Allow("k")
	}
	clock.Advance(time.Hour)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow("k") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("allowed %d after long idle, want capacity 5", allowed)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 2, 0)

	limiter.Allow("a")
	limiter.Allow("a")
	if limiter.Allow("a") {
		t.Fatal("key a should be exhausted")
	}
	if !limiter.Allow("b") {
		t.Fatal("key b must not be affected by key a")
	}
}

func TestMaxKeysEvictsStalest(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 60, 2)

	limiter.Allow("old")
	clock.Advance(time.Second)
	limiter.Allow("newer")
	clock.Advance(time.Second)
	limiter.Allow("newest")

	if got := limiter.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestAllowConcurrentAccountsExactly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := perMinuteLimiter(clock, 100, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Fatalf("allowed %d concurrent requests, want exactly 100", allowed)
	}
}
