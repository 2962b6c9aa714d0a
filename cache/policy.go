package cache

import (
	"fmt"
	"time"
)

// Eviction selects the policy used when the in-memory backend is full.
type Eviction int

const (
	// EvictLRU evicts the least-recently-touched entry.
	EvictLRU Eviction = iota
	// EvictLFU evicts an entry with the minimum observed access frequency,
	// ties broken by oldest insertion.
	EvictLFU
	// EvictFIFO evicts the entry with the oldest creation time.
	EvictFIFO
	// EvictTTL evicts an already-expired entry when one exists, falling
	// back to LRU otherwise.
	EvictTTL
)

// String returns the string representation of the eviction policy.
func (e Eviction) String() string {
	switch e {
	case EvictLRU:
		return "lru"
	case EvictLFU:
		return "lfu"
	case EvictFIFO:
		return "fifo"
	case EvictTTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// ParseEviction parses an eviction policy name as used in configuration.
func ParseEviction(s string) (Eviction, error) {
	switch s {
	case "lru", "":
		return EvictLRU, nil
	case "lfu":
		return EvictLFU, nil
	case "fifo":
		return EvictFIFO, nil
	case "ttl":
		return EvictTTL, nil
	default:
		return EvictLRU, fmt.Errorf("cache: unknown eviction policy %q", s)
	}
}

// Config configures a cache backend.
type Config struct {
	// MaxSize is the entry limit for the in-memory backend. Inserting a
	// new key at the limit triggers eviction.
	// Default: 1000
	MaxSize int

	// DefaultTTL applies when Set is called with ttl <= 0.
	// Zero means entries never expire by default.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL. Zero means no cap.
	MaxTTL time.Duration

	// Eviction selects the in-memory eviction policy.
	// Default: EvictLRU
	Eviction Eviction

	// NoLazyExpiration disables removing expired entries on Get. With it
	// set, an expired entry may still be returned; the caller owns that
	// tradeoff.
	NoLazyExpiration bool
}

// DefaultConfig returns the default backend configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:    1000,
		DefaultTTL: time.Hour,
		Eviction:   EvictLRU,
	}
}

// withDefaults returns a copy with defaults applied. The zero Config keeps
// lazy expiration enabled.
func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = 1000
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = time.Hour
	}
	return c
}

// EffectiveTTL returns the TTL to store, applying the default and clamping
// to MaxTTL.
func (c Config) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = c.DefaultTTL
	}
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	return ttl
}
