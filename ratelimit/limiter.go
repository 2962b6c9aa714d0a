package ratelimit

import "time"

// Limiter is the interface shared by all rate limiting algorithms.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Acquire is non-blocking: it either consumes n units atomically and
//   returns true, or consumes nothing and returns false.
// - WaitTime reports how long until n units would be available, 0 when
//   they already are. The estimate assumes no competing acquisitions.
type Limiter interface {
	// Acquire tries to consume n units of capacity.
	Acquire(n int) bool

	// WaitTime reports the time until n units would be available.
	WaitTime(n int) time.Duration

	// Snapshot returns the limiter's current state for observability.
	Snapshot() Snapshot
}

// Snapshot describes a limiter's state at a point in time.
type Snapshot struct {
	// Algorithm identifies the limiter variant.
	Algorithm Algorithm

	// Capacity is the total capacity (tokens, level room, or max requests).
	Capacity float64

	// Available is the capacity currently free.
	Available float64

	// InFlight is the number of recorded requests (sliding window only).
	InFlight int

	// CurrentLimit is the retuned limit (adaptive only).
	CurrentLimit int
}

// New builds a limiter for the algorithm selected in cfg. The variant is
// chosen once at construction; cfg is not consulted afterwards.
func New(cfg Config) Limiter {
	cfg = cfg.withDefaults()

	switch cfg.Algorithm {
	case LeakyBucketAlgorithm:
		return NewLeakyBucket(cfg.capacity(), cfg.ratePerSecond())
	case SlidingWindowAlgorithm:
		return NewSlidingWindow(cfg.MaxRequests, cfg.TimeWindow)
	case AdaptiveAlgorithm:
		return NewAdaptive(cfg)
	default:
		return NewTokenBucket(cfg.capacity(), cfg.ratePerSecond())
	}
}
