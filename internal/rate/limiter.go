package rate

import (
	"sync"
	"time"
)

// Config holds token-bucket tuning parameters.
type Config struct {
	// Capacity is the bucket size, conventionally the per-minute request
	// budget for a client key.
	Capacity float64
	// RefillPerSecond is the steady token drip; Capacity/60 reproduces a
	// per-minute budget.
	RefillPerSecond float64
	// MaxKeys bounds the bucket map. When full, the stalest bucket is
	// evicted to admit a new key. 0 means unbounded.
	MaxKeys int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// Limiter is a concurrent per-key token-bucket gate. Each key's
// check-and-decrement is atomic under that bucket's lock; distinct keys
// proceed independently.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates a Limiter. Buckets are created on first sight of a key with a
// full allowance.
func New(cfg Config) *Limiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether one request for key may proceed, consuming one token
// when it does. It always returns a decision and never errors.
func (l *Limiter) Allow(key string) bool {
	now := l.cfg.Now()
	b := l.bucket(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.cfg.RefillPerSecond
		if b.tokens > l.cfg.Capacity {
			b.tokens = l.cfg.Capacity
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Len returns the number of tracked client keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) bucket(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}
	if l.cfg.MaxKeys > 0 && len(l.buckets) >= l.cfg.MaxKeys {
		l.evictStalest()
	}
	b := &bucket{tokens: l.cfg.Capacity, lastRefill: now}
	l.buckets[key] = b
	return b
}

// evictStalest removes the bucket with the oldest refill time. Caller holds
// l.mu. A stale bucket would have refilled to capacity anyway, so evicting
// it never grants tokens the key did not already have.
func (l *Limiter) evictStalest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, b := range l.buckets {
		b.mu.Lock()
		last := b.lastRefill
		b.mu.Unlock()
		if !found || last.Before(oldest) {
			oldestKey, oldest, found = key, last, true
		}
	}
	if found {
		delete(l.buckets, oldestKey)
	}
}
