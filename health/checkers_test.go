package health

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/agentkit/agentkit/cache"
	"github.com/agentkit/agentkit/recovery"
)

func TestBackendCheckerHealthy(t *testing.T) {
	backend := cache.NewMemory(cache.DefaultConfig())
	checker := NewBackendChecker("l1", backend)

	if checker.Name() != "l1" {
		t.Errorf("Name = %q, want l1", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want healthy", result.Status, result.Message)
	}

	// The probe key must not linger in the backend.
	if got := backend.Len(context.Background()); got != 0 {
		t.Errorf("Len = %d after probe, want 0", got)
	}
}

func TestRedisCheckerHealthy(t *testing.T) {
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want healthy", result.Status, result.Message)
	}
}

func TestRedisCheckerUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	checker := NewRedisChecker(client)
	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", result.Status)
	}
	if result.Error == nil {
		t.Error("unhealthy result should carry the ping error")
	}
}

func TestBreakerChecker(t *testing.T) {
	cb := recovery.NewCircuitBreaker(recovery.BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  30 * time.Millisecond,
	})
	checker := NewBreakerChecker("upstream", cb)
	ctx := context.Background()

	if got := checker.Check(ctx).Status; got != StatusHealthy {
		t.Fatalf("closed breaker Status = %v, want healthy", got)
	}

	_, _ = cb.Execute(ctx, func(context.Context) (any, error) {
		return nil, ErrCheckFailed
	})
	if got := checker.Check(ctx).Status; got != StatusUnhealthy {
		t.Fatalf("open breaker Status = %v, want unhealthy", got)
	}

	time.Sleep(40 * time.Millisecond)
	if got := checker.Check(ctx).Status; got != StatusDegraded {
		t.Fatalf("half-open breaker Status = %v, want degraded", got)
	}
}

func TestDomainCheckersAggregate(t *testing.T) {
	backend := cache.NewMemory(cache.DefaultConfig())
	cb := recovery.NewCircuitBreaker(recovery.BreakerConfig{})

	agg := NewAggregator()
	agg.Register("cache", NewBackendChecker("cache", backend))
	agg.Register("breaker", NewBreakerChecker("breaker", cb))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if got := agg.OverallStatus(results); got != StatusHealthy {
		t.Errorf("OverallStatus = %v, want healthy", got)
	}
}
