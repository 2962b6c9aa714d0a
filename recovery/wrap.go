package recovery

import (
	"context"
	"time"
)

// WrapRetry returns op wrapped with retry logic.
func WrapRetry(r *Retry, op Operation) Operation {
	return func(ctx context.Context) (any, error) {
		return r.Execute(ctx, op)
	}
}

// WrapCircuitBreaker returns op guarded by the circuit breaker.
func WrapCircuitBreaker(cb *CircuitBreaker, op Operation) Operation {
	return func(ctx context.Context) (any, error) {
		return cb.Execute(ctx, op)
	}
}

// WrapFallback returns op backed by the fallback chain, with key
// identifying the call in the fallback's result cache.
func WrapFallback(f *Fallback, key string, op Operation) Operation {
	return func(ctx context.Context) (any, error) {
		return f.Execute(ctx, key, op)
	}
}

// ResilientConfig is the simplified configuration for Resilient.
type ResilientConfig struct {
	// Name identifies wrapped calls in the fallback result cache.
	// Default: "operation"
	Name string

	// MaxAttempts is the retry budget, including the first attempt.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// FailureThreshold opens the circuit after this many failures.
	// Default: 5
	FailureThreshold int

	// FallbackValue is served when all attempts fail. A nil value means
	// failures propagate.
	FallbackValue any
}

// Resilient returns a middleware combining retry, circuit breaking, and
// fallback with shared defaults. All wrapped operations share one breaker
// and one fallback cache, so wrap each logical downstream separately.
func Resilient(cfg ResilientConfig) func(Operation) Operation {
	if cfg.Name == "" {
		cfg.Name = "operation"
	}

	rec := NewRecovery(
		WithRetry(NewRetry(RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
		})),
		WithCircuitBreaker(NewCircuitBreaker(BreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
		})),
		WithFallback(NewFallback(FallbackConfig{
			Value: cfg.FallbackValue,
		})),
	)

	return func(op Operation) Operation {
		return func(ctx context.Context) (any, error) {
			return rec.Execute(ctx, cfg.Name, op)
		}
	}
}
