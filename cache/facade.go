package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agentkit/agentkit/observe"
)

// Func is a cacheable operation. Memoize wraps functions of this shape.
type Func func(ctx context.Context, args ...any) (any, error)

// Loader produces a value for GetOrLoad when the cache misses.
type Loader func(ctx context.Context) (any, error)

// Writer persists a value to a backing store for the write-through and
// write-behind patterns.
type Writer func(ctx context.Context, key string, value any) error

// Stats captures facade-level cache activity.
type Stats struct {
	Hits         int64
	Misses       int64
	Sets         int64
	Deletes      int64
	LoaderCalls  int64
	WriteBehinds int64
}

// HitRate returns the fraction of reads served from cache, 0 when no
// reads have been recorded.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is the high-level caching facade. It wraps any Backend with
// memoization, cache-aside loading, write-through and write-behind
// strategies, and bulk operations.
type Cache struct {
	instrumentation

	backend Backend
	keyer   Keyer
	group   singleflight.Group

	mu    sync.Mutex
	stats Stats

	// pending tracks in-flight write-behind goroutines so callers can
	// drain them before shutdown.
	pending sync.WaitGroup
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithKeyer overrides the keyer used by Memoize. Default: DefaultKeyer.
func WithKeyer(k Keyer) CacheOption {
	return func(c *Cache) { c.keyer = k }
}

// WithCacheLogger attaches a logger to the facade.
func WithCacheLogger(log observe.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// WithCacheMetrics attaches metrics to the facade.
func WithCacheMetrics(m *observe.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// New creates a Cache facade over the given backend.
func New(backend Backend, opts ...CacheOption) (*Cache, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	c := &Cache{
		instrumentation: newInstrumentation(nil),
		backend:         backend,
		keyer:           NewDefaultKeyer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Backend returns the underlying backend.
func (c *Cache) Backend() Backend { return c.backend }

// Get retrieves a value. The boolean reports whether the key was present
// and unexpired.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	value, ok := c.backend.Get(ctx, key)
	c.recordRead(ok)
	return value, ok
}

// GetDefault retrieves a value, returning def on a miss.
func (c *Cache) GetDefault(ctx context.Context, key string, def any) any {
	if value, ok := c.Get(ctx, key); ok {
		return value
	}
	return def
}

// Set stores a value. A ttl of zero uses the backend's default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := c.backend.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
	return nil
}

// Delete removes a key, reporting whether it was present.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	ok := c.backend.Delete(ctx, key)
	if ok {
		c.mu.Lock()
		c.stats.Deletes++
		c.mu.Unlock()
	}
	return ok
}

// Clear removes all entries.
func (c *Cache) Clear(ctx context.Context) {
	c.backend.Clear(ctx)
}

// Keys returns the keys currently stored.
func (c *Cache) Keys(ctx context.Context) []string {
	return c.backend.Keys(ctx)
}

// Len returns the number of stored entries.
func (c *Cache) Len(ctx context.Context) int {
	return c.backend.Len(ctx)
}

// Stats returns a snapshot of facade activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Memoize wraps fn so repeated calls with equal arguments are served from
// the cache. Keys are derived from name and the call arguments via the
// configured Keyer. Concurrent calls for the same key are deduplicated,
// so fn runs at most once per key while a call is in flight.
func (c *Cache) Memoize(name string, ttl time.Duration, fn Func) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		key, err := c.keyer.Key(name, args...)
		if err != nil {
			// Derivable key failures fall through to the function
			// so memoization never blocks the call itself.
			c.log.Warn(ctx, "memoize key derivation failed, bypassing cache",
				observe.F("name", name), observe.F("error", err))
			return fn(ctx, args...)
		}
		return c.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
			return fn(ctx, args...)
		}, ttl)
	}
}

// GetOrLoad implements the cache-aside pattern: return the cached value
// when present, otherwise invoke loader, store its result, and return it.
// Concurrent loads for the same key are collapsed into a single loader
// invocation.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader Loader, ttl time.Duration) (any, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the key while we waited.
		if value, ok := c.backend.Get(ctx, key); ok {
			return value, nil
		}

		c.mu.Lock()
		c.stats.LoaderCalls++
		c.mu.Unlock()

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.backend.Set(ctx, key, value, ttl); err != nil {
			// Serving the freshly loaded value matters more than
			// caching it.
			c.log.Warn(ctx, "cache-aside store failed",
				observe.F("key", key), observe.F("error", err))
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// WriteThrough stores the value in the cache and synchronously invokes
// writer. When the writer fails the cache entry is removed and the
// writer's error is returned, keeping cache and store consistent.
func (c *Cache) WriteThrough(ctx context.Context, key string, value any, writer Writer, ttl time.Duration) error {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := writer(ctx, key, value); err != nil {
		c.Delete(ctx, key)
		return fmt.Errorf("cache: write-through writer failed: %w", err)
	}
	return nil
}

// WriteBehind stores the value in the cache immediately and schedules
// writer to run in the background after delay. Writer failures are
// logged, not returned; the cache entry is kept either way. Use Flush to
// wait for scheduled writes to complete.
func (c *Cache) WriteBehind(ctx context.Context, key string, value any, writer Writer, ttl, delay time.Duration) error {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	c.mu.Lock()
	c.stats.WriteBehinds++
	c.mu.Unlock()

	// The write must survive the caller's request context; keep its
	// values for logging but detach from its cancellation.
	bgctx := context.WithoutCancel(ctx)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		if delay > 0 {
			time.Sleep(delay)
		}
		if err := writer(bgctx, key, value); err != nil {
			c.log.Error(bgctx, "write-behind writer failed",
				observe.F("key", key), observe.F("error", err))
		}
	}()
	return nil
}

// Flush blocks until all scheduled write-behind operations have finished.
func (c *Cache) Flush() {
	c.pending.Wait()
}

// BulkGet retrieves multiple keys, returning a map of the keys that were
// present.
func (c *Cache) BulkGet(ctx context.Context, keys []string) map[string]any {
	found := make(map[string]any, len(keys))
	for _, key := range keys {
		if value, ok := c.Get(ctx, key); ok {
			found[key] = value
		}
	}
	return found
}

// BulkSet stores multiple key/value pairs with a shared TTL. The first
// error aborts the operation and is returned with the failing key.
func (c *Cache) BulkSet(ctx context.Context, items map[string]any, ttl time.Duration) error {
	for key, value := range items {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return fmt.Errorf("cache: bulk set %q: %w", key, err)
		}
	}
	return nil
}

func (c *Cache) recordRead(hit bool) {
	c.mu.Lock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()
}
