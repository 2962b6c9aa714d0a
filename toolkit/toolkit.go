package toolkit

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentkit/agentkit/cache"
	"github.com/agentkit/agentkit/config"
	"github.com/agentkit/agentkit/health"
	"github.com/agentkit/agentkit/observe"
	"github.com/agentkit/agentkit/ratelimit"
	"github.com/agentkit/agentkit/recovery"
)

// ErrNilConfig is returned by New when no configuration is given.
var ErrNilConfig = errors.New("toolkit: config must not be nil")

// Toolkit composes the configured subsystems into one explicit context
// object, built once at process start and passed to whatever needs it.
type Toolkit struct {
	Config   *config.Config
	Observer *observe.Observer
	Limits   *ratelimit.Registry
	Cache    *cache.Cache
	Recovery *recovery.Recovery
	Health   *health.Aggregator

	redis *goredis.Client
}

// ToolkitOption configures New.
type ToolkitOption func(*builder)

type builder struct {
	observer *observe.Observer
	redis    *goredis.Client
}

// WithObserver uses a pre-built observer instead of constructing one
// from the configuration. Useful for tests and for processes that
// already own their telemetry setup.
func WithObserver(obs *observe.Observer) ToolkitOption {
	return func(b *builder) { b.observer = obs }
}

// WithRedisClient uses a pre-built Redis client instead of dialing
// cfg.Cache.Redis.Addr. The toolkit takes ownership and closes it.
func WithRedisClient(client *goredis.Client) ToolkitOption {
	return func(b *builder) { b.redis = client }
}

// New builds a toolkit from the configuration: observer, rate limit
// registry, cache (with an optional Redis level), recovery, and health
// checks. The caller should Close the toolkit on shutdown.
func New(ctx context.Context, cfg *config.Config, opts ...ToolkitOption) (*Toolkit, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	obs := b.observer
	if obs == nil {
		var err error
		obs, err = observe.NewObserver(ctx, observerConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("toolkit: observer: %w", err)
		}
	}
	log := obs.Logger()
	metrics := obs.Metrics()

	kit := &Toolkit{
		Config:   cfg,
		Observer: obs,
		Health:   health.NewAggregator(),
		redis:    b.redis,
	}

	policy, err := cfg.Cache.CachePolicy()
	if err != nil {
		return nil, err
	}
	backendOpts := []cache.Option{cache.WithLogger(log), cache.WithMetrics(metrics)}
	memory := cache.NewMemory(policy, backendOpts...)
	backend := cache.Backend(memory)

	if cfg.Cache.Redis.Enabled {
		if kit.redis == nil {
			kit.redis = goredis.NewClient(&goredis.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
		}
		codec, err := cache.ParseCodec(cfg.Cache.Redis.Codec)
		if err != nil {
			return nil, err
		}
		remote := cache.NewRedis(kit.redis, policy, cache.RedisConfig{
			Prefix: cfg.Cache.Redis.Prefix,
			Codec:  codec,
		}, backendOpts...)
		backend = cache.NewMultiLevel(memory, remote, backendOpts...)
		kit.Health.Register("redis", health.NewRedisChecker(kit.redis))
	}

	kit.Cache, err = cache.New(backend,
		cache.WithCacheLogger(log),
		cache.WithCacheMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	kit.Health.Register("cache", health.NewBackendChecker("cache", memory))

	kit.Limits = ratelimit.NewRegistry(
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(metrics),
	)
	for _, def := range cfg.RateLimits {
		lcfg, err := def.LimiterConfig()
		if err != nil {
			return nil, err
		}
		if def.Scope == "global" {
			kit.Limits.AddGlobalLimiter(def.Name, lcfg)
		} else {
			kit.Limits.AddLimiter(def.Name, lcfg, def.Scope)
		}
	}

	kit.Recovery, err = buildRecovery(cfg, obs)
	if err != nil {
		return nil, err
	}
	if cb := kit.Recovery.CircuitBreaker(); cb != nil {
		kit.Health.Register("recovery", health.NewBreakerChecker("recovery", cb))
	}

	log.Info(ctx, "toolkit ready",
		observe.F("service", cfg.Service.Name),
		observe.F("environment", cfg.Service.Environment),
		observe.F("rate_limits", len(cfg.RateLimits)),
		observe.F("redis", cfg.Cache.Redis.Enabled),
	)
	return kit, nil
}

// Close flushes pending write-behind work, shuts down the observer, and
// closes the Redis client when one was opened. It returns the first
// error encountered but attempts every step.
func (kit *Toolkit) Close(ctx context.Context) error {
	kit.Cache.Flush()

	var errs []error
	if err := kit.Observer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("toolkit: observer shutdown: %w", err))
	}
	if kit.redis != nil {
		if err := kit.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("toolkit: redis close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func observerConfig(cfg *config.Config) observe.Config {
	return observe.Config{
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Observe.Tracing.Enabled,
			Exporter:  cfg.Observe.Tracing.Exporter,
			SamplePct: cfg.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Observe.Metrics.Enabled,
			Exporter: cfg.Observe.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: cfg.Observe.Logging.Enabled,
			Level:   cfg.Observe.Logging.Level,
		},
	}
}

func buildRecovery(cfg *config.Config, obs *observe.Observer) (*recovery.Recovery, error) {
	prim := []recovery.Option{
		recovery.WithPrimitiveLogger(obs.Logger()),
		recovery.WithPrimitiveMetrics(obs.Metrics()),
	}
	opts := []recovery.RecoveryOption{
		recovery.WithLogger(obs.Logger()),
		recovery.WithMetrics(obs.Metrics()),
		recovery.WithTracer(obs.Tracer()),
	}

	rc := cfg.Recovery.Retry
	strategy, err := recovery.ParseStrategy(rc.Strategy)
	if err != nil {
		return nil, err
	}
	opts = append(opts, recovery.WithRetry(recovery.NewRetry(recovery.RetryConfig{
		MaxAttempts: rc.MaxAttempts,
		Strategy:    strategy,
		BaseDelay:   rc.BaseDelay,
		MaxDelay:    rc.MaxDelay,
		Multiplier:  rc.Multiplier,
	}, prim...)))

	if bc := cfg.Recovery.Breaker; bc.Enabled {
		opts = append(opts, recovery.WithCircuitBreaker(recovery.NewCircuitBreaker(recovery.BreakerConfig{
			FailureThreshold: bc.FailureThreshold,
			RecoveryTimeout:  bc.RecoveryTimeout,
			SuccessThreshold: bc.SuccessThreshold,
			MonitoringWindow: bc.MonitoringWindow,
		}, prim...)))
	}

	return recovery.NewRecovery(opts...), nil
}
