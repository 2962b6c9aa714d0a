package recovery_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentkit/agentkit/recovery"
)

func ExampleRetry() {
	r := recovery.NewRetry(recovery.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Strategy:    recovery.StrategyFixed,
	})

	attempts := 0
	result, err := r.Execute(context.Background(), func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("flaky")
		}
		return "done", nil
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(result, attempts)
	// Output: done 2
}

func ExampleCircuitBreaker() {
	cb := recovery.NewCircuitBreaker(recovery.BreakerConfig{FailureThreshold: 2})

	op := func(ctx context.Context) (any, error) {
		return nil, errors.New("downstream unavailable")
	}

	ctx := context.Background()
	_, _ = cb.Execute(ctx, op)
	_, _ = cb.Execute(ctx, op)
	_, err := cb.Execute(ctx, op)

	fmt.Println(cb.State(), errors.Is(err, recovery.ErrCircuitOpen))
	// Output: open true
}

func ExampleRecovery_Execute() {
	rec := recovery.NewRecovery(
		recovery.WithRetry(recovery.NewRetry(recovery.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   time.Millisecond,
		})),
		recovery.WithFallback(recovery.NewFallback(recovery.FallbackConfig{
			Value: "cached profile",
		})),
	)

	result, err := rec.Execute(context.Background(), "profile:42",
		func(ctx context.Context) (any, error) {
			return nil, errors.New("service down")
		})
	if err != nil {
		panic(err)
	}

	stats := rec.Stats()
	fmt.Println(result, stats.FallbacksUsed)
	// Output: cached profile 1
}

func ExampleResilient() {
	wrap := recovery.Resilient(recovery.ResilientConfig{
		Name:          "inventory",
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
		FallbackValue: 0,
	})

	count := wrap(func(ctx context.Context) (any, error) {
		return 17, nil
	})

	result, _ := count(context.Background())
	fmt.Println(result)
	// Output: 17
}
