package config

import (
	"fmt"
	"time"

	"github.com/agentkit/agentkit/cache"
	"github.com/agentkit/agentkit/ratelimit"
	"github.com/agentkit/agentkit/recovery"
)

// Config is the root configuration for the toolkit.
type Config struct {
	Service    ServiceConfig  `mapstructure:"service"`
	Observe    ObserveConfig  `mapstructure:"observe"`
	RateLimits []LimiterDef   `mapstructure:"rate_limits"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Recovery   RecoveryConfig `mapstructure:"recovery"`
}

// ServiceConfig identifies the service embedding the toolkit.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

// ObserveConfig configures tracing, metrics, and logging.
type ObserveConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TracingConfig configures the tracing exporter.
type TracingConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

// MetricsConfig configures the metrics exporter.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

// LimiterDef declares one rate limiter to register at startup.
type LimiterDef struct {
	// Name identifies the limiter inside its scope.
	Name string `mapstructure:"name"`

	// Scope groups limiters; "global" registers a global ceiling.
	Scope string `mapstructure:"scope"`

	// Algorithm is one of token_bucket, leaky_bucket, sliding_window,
	// adaptive.
	Algorithm string `mapstructure:"algorithm"`

	MaxRequests    int           `mapstructure:"max_requests"`
	TimeWindow     time.Duration `mapstructure:"time_window"`
	BurstAllowance int           `mapstructure:"burst_allowance"`
}

// CacheConfig configures the cache layers.
type CacheConfig struct {
	// MaxSize bounds the in-memory level.
	MaxSize int `mapstructure:"max_size"`

	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	MaxTTL     time.Duration `mapstructure:"max_ttl"`

	// Eviction is one of lru, lfu, fifo, ttl.
	Eviction string `mapstructure:"eviction"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the optional Redis cache level.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`

	// Codec is one of json, gob, text.
	Codec string `mapstructure:"codec"`
}

// RecoveryConfig configures retry, circuit breaking, and fallback.
type RecoveryConfig struct {
	Retry   RetryConfig   `mapstructure:"retry"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// RetryConfig configures the retry mechanism.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Strategy    string        `mapstructure:"strategy"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	MonitoringWindow time.Duration `mapstructure:"monitoring_window"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Service.Environment == "" {
		c.Service.Environment = "development"
	}
	if c.Service.Environment == "development" {
		c.Service.Debug = true
	}
	if c.Observe.Logging.Level == "" {
		c.Observe.Logging.Level = "info"
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = time.Hour
	}
	if c.Cache.Eviction == "" {
		c.Cache.Eviction = "lru"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "cache:"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("config: service.name is required")
	}
	switch c.Service.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("config: service.environment must be one of [development, staging, production] (got %q)", c.Service.Environment)
	}

	if _, err := cache.ParseEviction(c.Cache.Eviction); err != nil {
		return err
	}
	if _, err := cache.ParseCodec(c.Cache.Redis.Codec); err != nil {
		return err
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required when redis is enabled")
	}

	if c.Recovery.Retry.Strategy != "" {
		if _, err := recovery.ParseStrategy(c.Recovery.Retry.Strategy); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(c.RateLimits))
	for i, def := range c.RateLimits {
		if def.Name == "" {
			return fmt.Errorf("config: rate_limits[%d].name is required", i)
		}
		if _, err := ratelimit.ParseAlgorithm(def.Algorithm); def.Algorithm != "" && err != nil {
			return err
		}
		if def.MaxRequests <= 0 {
			return fmt.Errorf("config: rate_limits[%d].max_requests must be positive", i)
		}
		key := def.Scope + ":" + def.Name
		if seen[key] {
			return fmt.Errorf("config: duplicate rate limit %q", key)
		}
		seen[key] = true
	}

	return nil
}

// LimiterConfig converts a LimiterDef to a ratelimit.Config.
func (d LimiterDef) LimiterConfig() (ratelimit.Config, error) {
	algo := ratelimit.TokenBucketAlgorithm
	if d.Algorithm != "" {
		parsed, err := ratelimit.ParseAlgorithm(d.Algorithm)
		if err != nil {
			return ratelimit.Config{}, err
		}
		algo = parsed
	}
	return ratelimit.Config{
		MaxRequests:    d.MaxRequests,
		TimeWindow:     d.TimeWindow,
		Algorithm:      algo,
		BurstAllowance: d.BurstAllowance,
	}, nil
}

// CachePolicy converts the cache section to a cache.Config.
func (c CacheConfig) CachePolicy() (cache.Config, error) {
	eviction, err := cache.ParseEviction(c.Eviction)
	if err != nil {
		return cache.Config{}, err
	}
	return cache.Config{
		MaxSize:    c.MaxSize,
		DefaultTTL: c.DefaultTTL,
		MaxTTL:     c.MaxTTL,
		Eviction:   eviction,
	}, nil
}
