package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "AGENTKIT"

// LoaderOption customizes Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	envFile string
}

// WithEnvFile loads the given .env file before reading environment
// overrides. Default: ".env" in the working directory, when present.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// Load reads configuration from the YAML file at path, overlays
// AGENTKIT_* environment variables, applies defaults, and validates the
// result. An empty path skips the file and configures from environment
// and defaults alone.
func Load(path string, opts ...LoaderOption) (*Config, error) {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}

	loadEnvFile(o.envFile)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.expandSecrets(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads a .env file when one exists. A missing default file
// is not an error.
func loadEnvFile(path string) {
	explicit := path != ""
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			fmt.Fprintf(os.Stderr, "[config] warning: env file %s not found\n", path)
		}
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", path, err)
	}
}

// bindKeys registers every known config key so AutomaticEnv can resolve
// AGENTKIT_SECTION_KEY overrides without a config file present.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"service.name",
		"service.environment",
		"service.version",
		"service.debug",
		"observe.tracing.enabled",
		"observe.tracing.exporter",
		"observe.tracing.sample_pct",
		"observe.metrics.enabled",
		"observe.metrics.exporter",
		"observe.logging.enabled",
		"observe.logging.level",
		"cache.max_size",
		"cache.default_ttl",
		"cache.max_ttl",
		"cache.eviction",
		"cache.redis.enabled",
		"cache.redis.addr",
		"cache.redis.password",
		"cache.redis.db",
		"cache.redis.prefix",
		"cache.redis.codec",
		"recovery.retry.max_attempts",
		"recovery.retry.strategy",
		"recovery.retry.base_delay",
		"recovery.retry.max_delay",
		"recovery.retry.multiplier",
		"recovery.breaker.enabled",
		"recovery.breaker.failure_threshold",
		"recovery.breaker.recovery_timeout",
		"recovery.breaker.success_threshold",
		"recovery.breaker.monitoring_window",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: bind %s: %v\n", key, err)
		}
	}
}
