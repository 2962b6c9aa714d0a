package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a token bucket rate limiter. Tokens refill continuously at
// a fixed rate; each acquisition consumes tokens. Refill is computed lazily
// from elapsed wall-clock time at each call, never by a background timer.
type TokenBucket struct {
	capacity float64
	rate     float64 // tokens per second

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a token bucket holding up to capacity tokens,
// refilling at rate tokens per second. The bucket starts full.
func NewTokenBucket(capacity int, rate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		rate:       rate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Acquire tries to consume n tokens. The refill and the decrement happen
// atomically under the bucket's lock.
func (b *TokenBucket) Acquire(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// WaitTime reports how long until n tokens are available.
func (b *TokenBucket) WaitTime(n int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()

	if b.tokens >= float64(n) {
		return 0
	}
	needed := float64(n) - b.tokens
	return time.Duration(needed / b.rate * float64(time.Second))
}

// Tokens returns the current token count after refill.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Snapshot returns the bucket's current state.
func (b *TokenBucket) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return Snapshot{
		Algorithm: TokenBucketAlgorithm,
		Capacity:  b.capacity,
		Available: b.tokens,
	}
}

func (b *TokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	b.lastRefill = now

	b.tokens += elapsed.Seconds() * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// LeakyBucket is the dual of the token bucket: an accumulated level leaks
// at a fixed rate and each acquisition raises the level. Acquisition
// succeeds while the raised level stays within capacity.
type LeakyBucket struct {
	capacity float64
	rate     float64 // units leaked per second

	mu       sync.Mutex
	level    float64
	lastLeak time.Time
}

// NewLeakyBucket creates a leaky bucket with the given capacity, leaking at
// rate units per second. The bucket starts empty.
func NewLeakyBucket(capacity int, rate float64) *LeakyBucket {
	return &LeakyBucket{
		capacity: float64(capacity),
		rate:     rate,
		lastLeak: time.Now(),
	}
}

// Acquire tries to add n units to the bucket.
func (b *LeakyBucket) Acquire(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.leakLocked()

	if b.level+float64(n) <= b.capacity {
		b.level += float64(n)
		return true
	}
	return false
}

// WaitTime reports how long until n units fit in the bucket.
func (b *LeakyBucket) WaitTime(n int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.leakLocked()

	if b.level+float64(n) <= b.capacity {
		return 0
	}
	overflow := b.level + float64(n) - b.capacity
	return time.Duration(overflow / b.rate * float64(time.Second))
}

// Level returns the current level after leaking.
func (b *LeakyBucket) Level() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leakLocked()
	return b.level
}

// Snapshot returns the bucket's current state.
func (b *LeakyBucket) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leakLocked()
	return Snapshot{
		Algorithm: LeakyBucketAlgorithm,
		Capacity:  b.capacity,
		Available: b.capacity - b.level,
	}
}

func (b *LeakyBucket) leakLocked() {
	now := time.Now()
	elapsed := now.Sub(b.lastLeak)
	b.lastLeak = now

	b.level -= elapsed.Seconds() * b.rate
	if b.level < 0 {
		b.level = 0
	}
}

// Ensure both buckets implement Limiter.
var (
	_ Limiter = (*TokenBucket)(nil)
	_ Limiter = (*LeakyBucket)(nil)
)
