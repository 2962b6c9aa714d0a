package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the instruments recorded by the toolkit's resilience
// components. All methods are safe for concurrent use and never panic.
type Metrics struct {
	cacheOps       metric.Int64Counter
	cacheEvictions metric.Int64Counter
	limiterOps     metric.Int64Counter
	breakerStates  metric.Int64Counter
	recoveryCalls  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	cacheOps, err := meter.Int64Counter(
		"cache.ops.total",
		metric.WithDescription("Cache lookups by level and outcome"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}

	cacheEvictions, err := meter.Int64Counter(
		"cache.evictions.total",
		metric.WithDescription("Cache entries evicted by policy"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	limiterOps, err := meter.Int64Counter(
		"ratelimit.acquires.total",
		metric.WithDescription("Rate limiter acquisitions by limiter and outcome"),
		metric.WithUnit("{acquire}"),
	)
	if err != nil {
		return nil, err
	}

	breakerStates, err := meter.Int64Counter(
		"circuit.transitions.total",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	recoveryCalls, err := meter.Int64Counter(
		"recovery.calls.total",
		metric.WithDescription("Recovery executions by final outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheOps:       cacheOps,
		cacheEvictions: cacheEvictions,
		limiterOps:     limiterOps,
		breakerStates:  breakerStates,
		recoveryCalls:  recoveryCalls,
	}, nil
}

// RecordCacheOp records a cache lookup outcome ("hit", "miss", "promotion")
// for the given level ("l1", "l2", or a backend name).
func (m *Metrics) RecordCacheOp(ctx context.Context, level, outcome string) {
	if m == nil {
		return
	}
	m.cacheOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("level", level),
		attribute.String("outcome", outcome),
	))
}

// RecordCacheEviction records an eviction under the named policy.
func (m *Metrics) RecordCacheEviction(ctx context.Context, policy string) {
	if m == nil {
		return
	}
	m.cacheEvictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy", policy),
	))
}

// RecordLimiterAcquire records a rate limiter acquisition attempt.
func (m *Metrics) RecordLimiterAcquire(ctx context.Context, name string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.limiterOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", name),
		attribute.String("outcome", outcome),
	))
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.breakerStates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordRecoveryCall records a recovery execution with its final outcome
// ("success", "failure", "fallback").
func (m *Metrics) RecordRecoveryCall(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.recoveryCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
