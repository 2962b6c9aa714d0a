package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MultiLevel composes a fast, small L1 backend with a slower, larger L2.
// A hit in L2 promotes the value into L1. The two levels are updated
// independently, not transactionally; a crash between the two Set calls can
// leave them inconsistent, which is an accepted tradeoff.
type MultiLevel struct {
	instrumentation
	l1 Backend
	l2 Backend

	mu    sync.Mutex
	stats MultiLevelStats
}

// MultiLevelStats counts per-level outcomes for observability.
type MultiLevelStats struct {
	L1Hits     uint64
	L1Misses   uint64
	L2Hits     uint64
	L2Misses   uint64
	Promotions uint64
}

// TotalRequests is the number of Get calls observed.
func (s MultiLevelStats) TotalRequests() uint64 {
	return s.L1Hits + s.L1Misses
}

// HitRate is the fraction of Get calls served from either level.
func (s MultiLevelStats) HitRate() float64 {
	total := s.TotalRequests()
	if total == 0 {
		return 0
	}
	return float64(s.L1Hits+s.L2Hits) / float64(total)
}

// NewMultiLevel composes two backends into a promoting two-level cache.
func NewMultiLevel(l1, l2 Backend, opts ...Option) *MultiLevel {
	return &MultiLevel{
		instrumentation: newInstrumentation(opts),
		l1:              l1,
		l2:              l2,
	}
}

// Get checks L1 first, then L2. An L2 hit is copied into L1 before
// returning.
func (c *MultiLevel) Get(ctx context.Context, key string) (any, bool) {
	if value, ok := c.l1.Get(ctx, key); ok {
		c.record(ctx, "l1", "hit", func(s *MultiLevelStats) { s.L1Hits++ })
		return value, true
	}
	c.record(ctx, "l1", "miss", func(s *MultiLevelStats) { s.L1Misses++ })

	value, ok := c.l2.Get(ctx, key)
	if !ok {
		c.record(ctx, "l2", "miss", func(s *MultiLevelStats) { s.L2Misses++ })
		return nil, false
	}
	c.record(ctx, "l2", "hit", func(s *MultiLevelStats) { s.L2Hits++ })

	// Promote into L1. A failed promotion only costs the next lookup.
	if err := c.l1.Set(ctx, key, value, 0); err == nil {
		c.record(ctx, "l1", "promotion", func(s *MultiLevelStats) { s.Promotions++ })
	}

	return value, true
}

// Set writes to both levels independently; it succeeds if either level
// accepted the write.
func (c *MultiLevel) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	err1 := c.l1.Set(ctx, key, value, ttl)
	err2 := c.l2.Set(ctx, key, value, ttl)

	if err1 != nil && err2 != nil {
		return errors.Join(err1, err2)
	}
	return nil
}

// Delete removes the key from both levels.
func (c *MultiLevel) Delete(ctx context.Context, key string) bool {
	d1 := c.l1.Delete(ctx, key)
	d2 := c.l2.Delete(ctx, key)
	return d1 || d2
}

// Clear clears both levels.
func (c *MultiLevel) Clear(ctx context.Context) {
	c.l1.Clear(ctx)
	c.l2.Clear(ctx)
}

// Keys returns the union of both levels' keys.
func (c *MultiLevel) Keys(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, k := range c.l1.Keys(ctx) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, k := range c.l2.Keys(ctx) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Len reports the number of distinct keys across both levels.
func (c *MultiLevel) Len(ctx context.Context) int {
	return len(c.Keys(ctx))
}

// L1 returns the first-level backend.
func (c *MultiLevel) L1() Backend { return c.l1 }

// L2 returns the second-level backend.
func (c *MultiLevel) L2() Backend { return c.l2 }

// Stats returns a copy of the per-level counters.
func (c *MultiLevel) Stats() MultiLevelStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *MultiLevel) record(ctx context.Context, level, outcome string, update func(*MultiLevelStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
	c.metrics.RecordCacheOp(ctx, level, outcome)
}

var _ Backend = (*MultiLevel)(nil)
