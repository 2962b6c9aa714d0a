// Package cache provides pluggable key-value caching with eviction
// policies, a two-level cache with promotion, and higher-level access
// patterns (memoization, cache-aside, write-through, write-behind).
//
// Backends implement the Backend interface: an in-memory store with
// LRU/LFU/FIFO/TTL eviction, a file-based store, and a Redis store whose
// failures degrade to misses instead of propagating. MultiLevel composes a
// fast L1 with a larger L2 and promotes L2 hits into L1. Cache wraps any
// backend with the access patterns.
//
// Caching here is always a performance optimization, never a correctness
// dependency: Get never errors, and a failing backend must not take down
// its caller.
package cache
