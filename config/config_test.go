package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
service:
  name: agent-gateway
  environment: production
  version: 1.2.0
observe:
  logging:
    enabled: true
    level: warn
rate_limits:
  - name: api_calls
    scope: tools
    algorithm: sliding_window
    max_requests: 100
    time_window: 1m
cache:
  max_size: 500
  eviction: lfu
  redis:
    enabled: true
    addr: localhost:6379
    codec: gob
recovery:
  retry:
    max_attempts: 5
    strategy: fibonacci
    base_delay: 200ms
  breaker:
    enabled: true
    failure_threshold: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Name != "agent-gateway" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Service.Environment != "production" {
		t.Errorf("Service.Environment = %q", cfg.Service.Environment)
	}
	if cfg.Observe.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Observe.Logging.Level)
	}
	if len(cfg.RateLimits) != 1 {
		t.Fatalf("RateLimits = %v", cfg.RateLimits)
	}
	def := cfg.RateLimits[0]
	if def.Name != "api_calls" || def.Scope != "tools" || def.MaxRequests != 100 {
		t.Errorf("limiter def = %+v", def)
	}
	if def.TimeWindow != time.Minute {
		t.Errorf("TimeWindow = %v, want 1m", def.TimeWindow)
	}
	if cfg.Cache.MaxSize != 500 || cfg.Cache.Eviction != "lfu" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Cache.Redis.Enabled || cfg.Cache.Redis.Codec != "gob" {
		t.Errorf("redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Recovery.Retry.MaxAttempts != 5 || cfg.Recovery.Retry.Strategy != "fibonacci" {
		t.Errorf("retry = %+v", cfg.Recovery.Retry)
	}
	if cfg.Recovery.Retry.BaseDelay != 200*time.Millisecond {
		t.Errorf("BaseDelay = %v", cfg.Recovery.Retry.BaseDelay)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  name: minimal
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Environment != "development" {
		t.Errorf("Environment = %q, want development default", cfg.Service.Environment)
	}
	if !cfg.Service.Debug {
		t.Error("Debug should default to true in development")
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("Cache.MaxSize = %d, want 1000", cfg.Cache.MaxSize)
	}
	if cfg.Cache.DefaultTTL != time.Hour {
		t.Errorf("Cache.DefaultTTL = %v, want 1h", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.Eviction != "lru" {
		t.Errorf("Cache.Eviction = %q, want lru", cfg.Cache.Eviction)
	}
	if cfg.Observe.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Observe.Logging.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
service:
  name: from-file
cache:
  max_size: 100
`)

	t.Setenv("AGENTKIT_SERVICE_NAME", "from-env")
	t.Setenv("AGENTKIT_CACHE_MAX_SIZE", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.Name != "from-env" {
		t.Errorf("Service.Name = %q, want env override", cfg.Service.Name)
	}
	if cfg.Cache.MaxSize != 250 {
		t.Errorf("Cache.MaxSize = %d, want 250", cfg.Cache.MaxSize)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("AGENTKIT_SERVICE_NAME", "env-only")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.Name != "env-only" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{}
		cfg.Service.Name = "svc"
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing name", func(c *Config) { c.Service.Name = "" }, "service.name"},
		{"bad environment", func(c *Config) { c.Service.Environment = "qa" }, "environment"},
		{"bad eviction", func(c *Config) { c.Cache.Eviction = "random" }, "eviction"},
		{"bad codec", func(c *Config) { c.Cache.Redis.Codec = "xml" }, "codec"},
		{"redis without addr", func(c *Config) { c.Cache.Redis.Enabled = true }, "redis.addr"},
		{"bad strategy", func(c *Config) { c.Recovery.Retry.Strategy = "random" }, "strategy"},
		{"limiter missing name", func(c *Config) {
			c.RateLimits = []LimiterDef{{Scope: "s", MaxRequests: 1}}
		}, "name"},
		{"limiter bad algorithm", func(c *Config) {
			c.RateLimits = []LimiterDef{{Name: "a", Algorithm: "nope", MaxRequests: 1}}
		}, "algorithm"},
		{"limiter zero requests", func(c *Config) {
			c.RateLimits = []LimiterDef{{Name: "a"}}
		}, "max_requests"},
		{"duplicate limiter", func(c *Config) {
			c.RateLimits = []LimiterDef{
				{Name: "a", Scope: "s", MaxRequests: 1},
				{Name: "a", Scope: "s", MaxRequests: 2},
			}
		}, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLimiterDefConversion(t *testing.T) {
	def := LimiterDef{
		Name:           "api",
		Algorithm:      "sliding_window",
		MaxRequests:    50,
		TimeWindow:     30 * time.Second,
		BurstAllowance: 5,
	}

	cfg, err := def.LimiterConfig()
	if err != nil {
		t.Fatalf("LimiterConfig: %v", err)
	}
	if cfg.MaxRequests != 50 || cfg.TimeWindow != 30*time.Second || cfg.BurstAllowance != 5 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := (LimiterDef{Algorithm: "nope"}).LimiterConfig(); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
