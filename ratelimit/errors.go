package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimitExceeded is returned when an acquisition is denied.
// Denials carry a *LimitExceededError that unwraps to this sentinel.
var ErrRateLimitExceeded = errors.New("ratelimit: limit exceeded")

// LimitExceededError is returned when an acquisition is denied. It carries
// the time after which a retry may succeed so callers can decide to wait,
// queue, or abort.
type LimitExceededError struct {
	// Name is the limiter name that denied the request.
	Name string

	// Scope is the limiter scope.
	Scope string

	// RetryAfter is the estimated time until capacity is available.
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("ratelimit: limit exceeded for %s:%s (retry after %s)", e.Scope, e.Name, e.RetryAfter)
}

// Unwrap allows errors.Is(err, ErrRateLimitExceeded).
func (e *LimitExceededError) Unwrap() error { return ErrRateLimitExceeded }
