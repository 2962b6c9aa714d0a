package ratelimit

import (
	"fmt"
	"time"
)

// Algorithm selects the rate limiting algorithm for a limiter.
type Algorithm int

const (
	// TokenBucketAlgorithm refills capacity continuously and consumes it per request.
	TokenBucketAlgorithm Algorithm = iota
	// LeakyBucketAlgorithm drains an accumulated level continuously.
	LeakyBucketAlgorithm
	// SlidingWindowAlgorithm tracks exact request timestamps in a trailing window.
	SlidingWindowAlgorithm
	// AdaptiveAlgorithm retunes a token bucket from reported success rates.
	AdaptiveAlgorithm
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case TokenBucketAlgorithm:
		return "token_bucket"
	case LeakyBucketAlgorithm:
		return "leaky_bucket"
	case SlidingWindowAlgorithm:
		return "sliding_window"
	case AdaptiveAlgorithm:
		return "adaptive"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses an algorithm name as used in configuration files.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "token_bucket", "":
		return TokenBucketAlgorithm, nil
	case "leaky_bucket":
		return LeakyBucketAlgorithm, nil
	case "sliding_window":
		return SlidingWindowAlgorithm, nil
	case "adaptive":
		return AdaptiveAlgorithm, nil
	default:
		return TokenBucketAlgorithm, fmt.Errorf("ratelimit: unknown algorithm %q", s)
	}
}

// Config configures a limiter. It is immutable once a limiter is built from it.
type Config struct {
	// MaxRequests is the number of requests allowed per TimeWindow.
	// Default: 10
	MaxRequests int

	// TimeWindow is the window over which MaxRequests applies.
	// Default: 1 second
	TimeWindow time.Duration

	// Algorithm selects the limiting algorithm.
	// Default: TokenBucketAlgorithm
	Algorithm Algorithm

	// BurstAllowance is extra capacity granted on top of MaxRequests for
	// the bucket algorithms.
	BurstAllowance int

	// BackoffFactor is the multiplier applied between backoff attempts in
	// Registry.AcquireWithBackoff.
	// Default: 1.5
	BackoffFactor float64

	// MaxBackoff caps the backoff sleep in Registry.AcquireWithBackoff.
	// Default: 5 minutes
	MaxBackoff time.Duration

	// AdaptiveThreshold is the success rate below which the adaptive
	// algorithm shrinks its limit.
	// Default: 0.8
	AdaptiveThreshold float64

	// AdjustmentInterval is how often the adaptive algorithm retunes.
	// Default: 60 seconds
	AdjustmentInterval time.Duration
}

// withDefaults returns a copy of the config with defaults applied.
func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = 10
	}
	if c.TimeWindow <= 0 {
		c.TimeWindow = time.Second
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 1.5
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	if c.AdaptiveThreshold <= 0 || c.AdaptiveThreshold >= 1 {
		c.AdaptiveThreshold = 0.8
	}
	if c.AdjustmentInterval <= 0 {
		c.AdjustmentInterval = 60 * time.Second
	}
	return c
}

// capacity is the total bucket capacity including burst allowance.
func (c Config) capacity() int {
	return c.MaxRequests + c.BurstAllowance
}

// ratePerSecond is the refill/leak rate in units per second.
func (c Config) ratePerSecond() float64 {
	return float64(c.MaxRequests) / c.TimeWindow.Seconds()
}
