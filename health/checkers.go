package health

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentkit/agentkit/cache"
	"github.com/agentkit/agentkit/recovery"
)

// BackendChecker verifies a cache backend by round-tripping a probe key.
type BackendChecker struct {
	name    string
	backend cache.Backend
}

// NewBackendChecker creates a checker for the given cache backend.
func NewBackendChecker(name string, backend cache.Backend) *BackendChecker {
	return &BackendChecker{name: name, backend: backend}
}

// Name returns the name of this checker.
func (c *BackendChecker) Name() string { return c.name }

// Check writes a probe entry, reads it back, and removes it.
func (c *BackendChecker) Check(ctx context.Context) Result {
	probe := fmt.Sprintf("health:probe:%d", time.Now().UnixNano())

	if err := c.backend.Set(ctx, probe, "ok", time.Minute); err != nil {
		return Unhealthy("probe write failed", err)
	}
	defer c.backend.Delete(ctx, probe)

	value, ok := c.backend.Get(ctx, probe)
	if !ok {
		return Unhealthy("probe read missed", ErrCheckFailed)
	}
	if value != "ok" {
		return Degraded(fmt.Sprintf("probe value mismatch: %v", value))
	}

	return Healthy("backend round-trip ok").WithDetails(map[string]any{
		"entries": c.backend.Len(ctx),
	})
}

// RedisChecker verifies connectivity to a Redis server.
type RedisChecker struct {
	client *goredis.Client
}

// NewRedisChecker creates a checker for the given Redis client.
func NewRedisChecker(client *goredis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns the name of this checker.
func (c *RedisChecker) Name() string { return "redis" }

// Ping checks if the Redis server is reachable.
func (c *RedisChecker) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Check performs the Redis health check.
func (c *RedisChecker) Check(ctx context.Context) Result {
	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		return Unhealthy("redis unreachable", err)
	}

	return Healthy("redis reachable").WithDetails(map[string]any{
		"ping_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
}

// BreakerChecker maps circuit breaker state to health: an open circuit is
// unhealthy, a half-open circuit is degraded.
type BreakerChecker struct {
	name    string
	breaker *recovery.CircuitBreaker
}

// NewBreakerChecker creates a checker for the given circuit breaker.
func NewBreakerChecker(name string, breaker *recovery.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the name of this checker.
func (c *BreakerChecker) Name() string { return c.name }

// Check reports the breaker's state as a health result.
func (c *BreakerChecker) Check(_ context.Context) Result {
	snap := c.breaker.Snapshot()
	details := map[string]any{
		"state":    snap.State.String(),
		"failures": snap.Failures,
	}

	switch snap.State {
	case recovery.StateOpen:
		return Unhealthy(
			fmt.Sprintf("circuit open, retry in %s", snap.RetryAfter),
			ErrCheckFailed,
		).WithDetails(details)
	case recovery.StateHalfOpen:
		return Degraded("circuit probing for recovery").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}

var (
	_ Checker     = (*BackendChecker)(nil)
	_ PingChecker = (*RedisChecker)(nil)
	_ Checker     = (*BreakerChecker)(nil)
)
