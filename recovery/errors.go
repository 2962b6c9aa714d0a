package recovery

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for recovery operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	// Rejections carry a *CircuitOpenError that unwraps to this sentinel.
	ErrCircuitOpen = errors.New("recovery: circuit breaker is open")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("recovery: bulkhead at capacity")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("recovery: operation timed out")
)

// CircuitOpenError is returned when the circuit breaker rejects a call.
type CircuitOpenError struct {
	// RetryAfter is the time remaining until the breaker will probe the
	// downstream again, 0 when the probe is already due.
	RetryAfter time.Duration

	// LastFailure is when the breaker last recorded a failure.
	LastFailure time.Time
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("recovery: circuit breaker is open, retry after %s", e.RetryAfter)
}

// Unwrap allows errors.Is(err, ErrCircuitOpen).
func (e *CircuitOpenError) Unwrap() error { return ErrCircuitOpen }
