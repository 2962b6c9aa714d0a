// Package recovery provides error recovery primitives for unreliable
// operations: retry with pluggable backoff strategies, a circuit breaker
// with a sliding failure window, and a fallback chain for graceful
// degradation.
//
// The unit of work everywhere is an Operation:
//
//	op := func(ctx context.Context) (any, error) {
//		return client.Fetch(ctx, id)
//	}
//
// Each primitive can be used on its own:
//
//	r := recovery.NewRetry(recovery.RetryConfig{MaxAttempts: 5})
//	result, err := r.Execute(ctx, op)
//
// or composed through a Recovery, which nests the circuit breaker inside
// the retry loop and consults the fallback chain last:
//
//	rec := recovery.NewRecovery(
//		recovery.WithRetry(recovery.NewRetry(recovery.RetryConfig{})),
//		recovery.WithCircuitBreaker(recovery.NewCircuitBreaker(recovery.BreakerConfig{})),
//		recovery.WithFallback(recovery.NewFallback(recovery.FallbackConfig{Value: "default"})),
//	)
//	result, err := rec.Execute(ctx, "fetch-user", op)
//
// For call sites that prefer plain functions over a struct, the Wrap
// helpers turn any primitive into an Operation middleware.
package recovery
