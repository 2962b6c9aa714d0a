package health

import (
	"context"
	"time"
)

// Status is the health state of one component.
type Status int

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = iota
	// StatusDegraded means the component works but something is off, e.g.
	// a half-open circuit breaker or a probe value mismatch.
	StatusDegraded
	// StatusUnhealthy means the component is down or unreachable.
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// worst returns the more severe of two statuses. Severity orders
// healthy < degraded < unhealthy.
func worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Result is the outcome of a single check.
type Result struct {
	Status Status

	// Message is a short human-readable summary.
	Message string

	// Details carries check-specific metadata, e.g. entry counts or
	// ping latency.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check ran.
	Timestamp time.Time

	// Error holds the failure when Status is not healthy.
	Error error
}

// Healthy builds a healthy result with the given summary.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a degraded result with the given summary.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds an unhealthy result carrying the failure.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails returns a copy of the result with metadata attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns a copy of the result with its duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker probes one component.
//
// Check must honor ctx cancellation and must not panic; report failures
// through the Result instead.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a plain function into a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a Checker under the given name.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// PingChecker is a Checker whose component supports a cheap reachability
// probe, e.g. a Redis PING.
type PingChecker interface {
	Checker

	Ping(ctx context.Context) error
}

var _ Checker = (*CheckerFunc)(nil)
