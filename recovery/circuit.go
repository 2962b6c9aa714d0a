package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/agentkit/agentkit/observe"
)

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	// StateClosed means calls flow through normally.
	StateClosed BreakerState = iota
	// StateOpen means calls are rejected without running.
	StateOpen
	// StateHalfOpen means the breaker is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of failures inside MonitoringWindow
	// that opens the circuit.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long after the last failure the breaker
	// waits before probing in half-open state.
	// Default: 60s
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the circuit.
	// Default: 3
	SuccessThreshold int

	// MonitoringWindow bounds how long a failure counts against the
	// threshold.
	// Default: 5m
	MonitoringWindow time.Duration

	// IsFailure reports whether an error counts as a breaker failure.
	// Errors it rejects pass through without touching breaker state.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// OnStateChange is called after every state transition.
	OnStateChange func(from, to BreakerState)
}

// CircuitBreaker guards an unreliable downstream. Failures within the
// monitoring window open the circuit; after the recovery timeout a limited
// probe decides whether to close it again.
type CircuitBreaker struct {
	config  BreakerConfig
	log     observe.Logger
	metrics *observe.Metrics

	mu           sync.Mutex
	state        BreakerState
	failureTimes []time.Time
	successes    int
	lastFailure  time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config BreakerConfig, opts ...Option) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.MonitoringWindow <= 0 {
		config.MonitoringWindow = 5 * time.Minute
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	in := newInstrumentation(opts)
	return &CircuitBreaker{
		config:  config,
		log:     in.log,
		metrics: in.metrics,
		state:   StateClosed,
	}
}

// Execute runs op through the circuit breaker. An open circuit rejects the
// call with a *CircuitOpenError carrying the time until the next probe.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) (any, error) {
	if err := cb.beforeCall(ctx); err != nil {
		return nil, err
	}

	result, err := op(ctx)
	cb.afterCall(ctx, err)
	return result, err
}

// State returns the current state, applying any pending open-to-half-open
// transition first.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked(context.Background())
}

// BreakerSnapshot is a point-in-time view of breaker internals.
type BreakerSnapshot struct {
	State       BreakerState
	Failures    int
	Successes   int
	LastFailure time.Time

	// RetryAfter is the time until the next half-open probe, 0 unless the
	// circuit is open.
	RetryAfter time.Duration
}

// Snapshot returns the breaker's current counters and state.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.currentStateLocked(context.Background())
	snap := BreakerSnapshot{
		State:       state,
		Failures:    len(cb.failureTimes),
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
	if state == StateOpen {
		snap.RetryAfter = cb.retryAfterLocked(time.Now())
	}
	return snap
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	old := cb.state
	cb.state = StateClosed
	cb.failureTimes = nil
	cb.successes = 0
	cb.lastFailure = time.Time{}

	if old != StateClosed {
		cb.notify(context.Background(), old, StateClosed)
	}
}

func (cb *CircuitBreaker) beforeCall(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.currentStateLocked(ctx) == StateOpen {
		return &CircuitOpenError{
			RetryAfter:  cb.retryAfterLocked(time.Now()),
			LastFailure: cb.lastFailure,
		}
	}
	return nil
}

func (cb *CircuitBreaker) afterCall(ctx context.Context, err error) {
	if err != nil && !cb.config.IsFailure(err) {
		// Excluded errors pass through without touching breaker state.
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.onSuccessLocked(ctx)
	} else {
		cb.onFailureLocked(ctx)
	}
}

func (cb *CircuitBreaker) onSuccessLocked(ctx context.Context) {
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.failureTimes = nil
			cb.successes = 0
			cb.transitionLocked(ctx, StateClosed)
		}
	case StateClosed:
		// A success forgives the oldest failure in the window.
		if len(cb.failureTimes) > 0 {
			cb.failureTimes = cb.failureTimes[1:]
		}
	}
}

func (cb *CircuitBreaker) onFailureLocked(ctx context.Context) {
	now := time.Now()
	cb.pruneLocked(now)
	cb.failureTimes = append(cb.failureTimes, now)
	cb.lastFailure = now

	switch cb.state {
	case StateClosed:
		if len(cb.failureTimes) >= cb.config.FailureThreshold {
			cb.transitionLocked(ctx, StateOpen)
		}
	case StateHalfOpen:
		cb.successes = 0
		cb.transitionLocked(ctx, StateOpen)
	}
}

// currentStateLocked prunes stale failures and applies the lazy
// open-to-half-open transition before reporting the state.
func (cb *CircuitBreaker) currentStateLocked(ctx context.Context) BreakerState {
	cb.pruneLocked(time.Now())

	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.RecoveryTimeout {
		cb.successes = 0
		cb.transitionLocked(ctx, StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.config.MonitoringWindow)
	for len(cb.failureTimes) > 0 && !cb.failureTimes[0].After(cutoff) {
		cb.failureTimes = cb.failureTimes[1:]
	}
}

func (cb *CircuitBreaker) retryAfterLocked(now time.Time) time.Duration {
	remaining := cb.config.RecoveryTimeout - now.Sub(cb.lastFailure)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (cb *CircuitBreaker) transitionLocked(ctx context.Context, to BreakerState) {
	from := cb.state
	cb.state = to
	cb.notify(ctx, from, to)
}

func (cb *CircuitBreaker) notify(ctx context.Context, from, to BreakerState) {
	cb.log.Info(ctx, "circuit breaker state changed",
		observe.F("from", from.String()), observe.F("to", to.String()))
	cb.metrics.RecordBreakerTransition(ctx, from.String(), to.String())
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
