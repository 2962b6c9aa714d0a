package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agentkit/agentkit/observe"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilBackend = errors.New("cache: backend is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrSetFailed marks a write the backing store rejected. Backends
	// wrap it so callers can classify degraded writes with errors.Is.
	ErrSetFailed = errors.New("cache: set failed")
)

// Backend is the interface all cache stores implement.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get never errors; it returns (nil, false) on miss, expiry, or any
//   backend failure.
// - Set returns an error only for the caller to observe a failed write;
//   implementations must not panic or propagate backend outages.
// - Delete is idempotent and reports whether an entry was removed.
type Backend interface {
	// Get retrieves a value. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value. ttl <= 0 selects the backend's default TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a value, reporting whether it existed.
	Delete(ctx context.Context, key string) bool

	// Clear removes all entries.
	Clear(ctx context.Context)

	// Keys lists the stored keys.
	Keys(ctx context.Context) []string

	// Len reports the number of stored entries.
	Len(ctx context.Context) int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Option configures a backend's instrumentation.
type Option func(*instrumentation)

// instrumentation carries the logger and metrics shared by all backends.
type instrumentation struct {
	log     observe.Logger
	metrics *observe.Metrics
}

func newInstrumentation(opts []Option) instrumentation {
	in := instrumentation{log: observe.NopLogger()}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// WithLogger sets the logger used for degraded-backend and write-behind
// failures.
func WithLogger(log observe.Logger) Option {
	return func(in *instrumentation) { in.log = log }
}

// WithMetrics sets the metrics recorder for hit/miss/eviction counters.
func WithMetrics(m *observe.Metrics) Option {
	return func(in *instrumentation) { in.metrics = m }
}
