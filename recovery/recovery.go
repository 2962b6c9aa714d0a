package recovery

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/agentkit/agentkit/observe"
)

// Operation is the unit of work all recovery primitives execute.
type Operation func(ctx context.Context) (any, error)

// Stats tracks recovery activity across Execute calls.
type Stats struct {
	// TotalCalls counts Execute invocations, exactly one per call.
	TotalCalls int64

	// SuccessfulCalls counts calls that returned a result, including
	// calls rescued by the fallback chain.
	SuccessfulCalls int64

	// FailedCalls counts calls whose final outcome was an error. A call
	// increments exactly one of SuccessfulCalls or FailedCalls.
	FailedCalls int64

	// RetriesUsed counts attempts beyond the first across all calls.
	RetriesUsed int64

	// CircuitBreakerOpens counts attempts rejected by an open breaker.
	CircuitBreakerOpens int64

	// FallbacksUsed counts calls rescued by the fallback chain.
	FallbacksUsed int64
}

// SuccessRate returns the fraction of successful calls, 0 when no calls
// have been made.
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessfulCalls) / float64(s.TotalCalls)
}

// Recovery composes retry, circuit breaking, and fallback into a single
// execution pipeline.
type Recovery struct {
	retry    *Retry
	breaker  *CircuitBreaker
	fallback *Fallback

	log     observe.Logger
	metrics *observe.Metrics
	tracer  trace.Tracer

	mu    sync.Mutex
	stats Stats
}

// RecoveryOption configures a Recovery.
type RecoveryOption func(*Recovery)

// WithRetry adds retry logic to the pipeline.
func WithRetry(r *Retry) RecoveryOption {
	return func(rec *Recovery) { rec.retry = r }
}

// WithCircuitBreaker adds a circuit breaker to the pipeline.
func WithCircuitBreaker(cb *CircuitBreaker) RecoveryOption {
	return func(rec *Recovery) { rec.breaker = cb }
}

// WithFallback adds a fallback chain to the pipeline.
func WithFallback(f *Fallback) RecoveryOption {
	return func(rec *Recovery) { rec.fallback = f }
}

// WithLogger sets the logger for recovery events.
func WithLogger(log observe.Logger) RecoveryOption {
	return func(rec *Recovery) { rec.log = log }
}

// WithMetrics sets the metrics recorder for recovery outcomes.
func WithMetrics(m *observe.Metrics) RecoveryOption {
	return func(rec *Recovery) { rec.metrics = m }
}

// WithTracer emits a span per Execute call, named "recovery.<key>".
func WithTracer(t trace.Tracer) RecoveryOption {
	return func(rec *Recovery) { rec.tracer = t }
}

// NewRecovery creates a recovery pipeline. All primitives are optional; a
// Recovery with no options simply invokes the operation.
func NewRecovery(opts ...RecoveryOption) *Recovery {
	rec := &Recovery{log: observe.NopLogger()}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

// Execute runs op through the configured pipeline. The circuit breaker
// guards every attempt of the retry loop, so an attempt rejected by an
// open breaker counts against the retry budget. The fallback chain is
// consulted only after retries are exhausted; key identifies the call for
// the fallback's result cache.
func (rec *Recovery) Execute(ctx context.Context, key string, op Operation) (any, error) {
	ctx, span := observe.StartSpan(ctx, rec.tracer, "recovery", key)
	result, err := rec.execute(ctx, key, op)
	observe.EndSpan(span, err)
	return result, err
}

func (rec *Recovery) execute(ctx context.Context, key string, op Operation) (any, error) {
	rec.mu.Lock()
	rec.stats.TotalCalls++
	rec.mu.Unlock()

	guarded := func(ctx context.Context) (any, error) {
		if rec.breaker == nil {
			return op(ctx)
		}
		result, err := rec.breaker.Execute(ctx, op)
		if err != nil && errors.Is(err, ErrCircuitOpen) {
			rec.mu.Lock()
			rec.stats.CircuitBreakerOpens++
			rec.mu.Unlock()
		}
		return result, err
	}

	var result any
	var err error
	if rec.retry != nil {
		attempts := 0
		counting := func(ctx context.Context) (any, error) {
			attempts++
			if attempts > 1 {
				rec.mu.Lock()
				rec.stats.RetriesUsed++
				rec.mu.Unlock()
			}
			return guarded(ctx)
		}
		result, err = rec.retry.Execute(ctx, counting)
	} else {
		result, err = guarded(ctx)
	}

	if err == nil {
		if rec.fallback != nil {
			rec.fallback.Remember(key, result)
		}
		rec.recordOutcome(ctx, "success", &rec.stats.SuccessfulCalls)
		return result, nil
	}

	if rec.fallback != nil {
		fbResult, fbErr := rec.fallback.Recover(ctx, key, err)
		if fbErr == nil {
			rec.mu.Lock()
			rec.stats.FallbacksUsed++
			rec.mu.Unlock()
			rec.recordOutcome(ctx, "fallback", &rec.stats.SuccessfulCalls)
			rec.log.Info(ctx, "operation rescued by fallback",
				observe.F("key", key), observe.F("error", err))
			return fbResult, nil
		}
	}

	rec.recordOutcome(ctx, "failure", &rec.stats.FailedCalls)
	return nil, err
}

// Stats returns a snapshot of the recovery counters.
func (rec *Recovery) Stats() Stats {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.stats
}

// ResetStats zeroes the recovery counters.
func (rec *Recovery) ResetStats() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.stats = Stats{}
}

// ResetCircuitBreaker closes the breaker, if one is configured.
func (rec *Recovery) ResetCircuitBreaker() {
	if rec.breaker != nil {
		rec.breaker.Reset()
	}
}

// CircuitBreaker returns the configured breaker, nil when absent.
func (rec *Recovery) CircuitBreaker() *CircuitBreaker { return rec.breaker }

func (rec *Recovery) recordOutcome(ctx context.Context, outcome string, counter *int64) {
	rec.mu.Lock()
	*counter++
	rec.mu.Unlock()
	rec.metrics.RecordRecoveryCall(ctx, outcome)
}
