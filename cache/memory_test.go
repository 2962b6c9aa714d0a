package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 10, DefaultTTL: time.Hour})

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for absent key")
	}

	if err := m.Set(ctx, "a", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := m.Get(ctx, "a")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if v != 1 {
		t.Fatalf("got %v, want 1", v)
	}
	if got := m.Len(ctx); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestMemoryExpiration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 10, DefaultTTL: time.Hour})

	if err := m.Set(ctx, "short", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := m.Get(ctx, "short"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := m.Get(ctx, "short"); ok {
		t.Fatal("expected miss after expiry")
	}
	// Lazy expiration removed the entry on read.
	if got := m.Len(ctx); got != 0 {
		t.Fatalf("Len = %d, want 0 after lazy removal", got)
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 10, DefaultTTL: time.Hour})

	_ = m.Set(ctx, "a", 1, 0)
	if !m.Delete(ctx, "a") {
		t.Fatal("Delete should report true for present key")
	}
	if m.Delete(ctx, "a") {
		t.Fatal("Delete should report false for absent key")
	}
}

func TestMemoryEvictionLRU(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 3, DefaultTTL: time.Hour, Eviction: EvictLRU})

	for _, k := range []string{"a", "b", "c"} {
		_ = m.Set(ctx, k, k, 0)
	}
	// Touch "a" so "b" becomes least recently used.
	m.Get(ctx, "a")
	_ = m.Set(ctx, "d", "d", 0)

	if _, ok := m.Get(ctx, "b"); ok {
		t.Fatal("expected LRU victim b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := m.Get(ctx, k); !ok {
			t.Fatalf("key %q unexpectedly evicted", k)
		}
	}
}

func TestMemoryEvictionLFU(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 3, DefaultTTL: time.Hour, Eviction: EvictLFU})

	_ = m.Set(ctx, "a", 1, 0)
	_ = m.Set(ctx, "b", 2, 0)
	_ = m.Set(ctx, "c", 3, 0)

	// a: 2 accesses, c: 1 access, b: 0 accesses.
	m.Get(ctx, "a")
	m.Get(ctx, "a")
	m.Get(ctx, "c")

	_ = m.Set(ctx, "d", 4, 0)
	if _, ok := m.Get(ctx, "b"); ok {
		t.Fatal("expected least frequently used key b to be evicted")
	}
}

func TestMemoryEvictionLFUTieBreak(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 2, DefaultTTL: time.Hour, Eviction: EvictLFU})

	// Equal access counts: the earlier insertion loses.
	_ = m.Set(ctx, "old", 1, 0)
	_ = m.Set(ctx, "new", 2, 0)
	_ = m.Set(ctx, "next", 3, 0)

	if _, ok := m.Get(ctx, "old"); ok {
		t.Fatal("expected oldest insertion to break the LFU tie")
	}
	if _, ok := m.Get(ctx, "new"); !ok {
		t.Fatal("newer entry should survive the tie-break")
	}
}

func TestMemoryEvictionFIFO(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 3, DefaultTTL: time.Hour, Eviction: EvictFIFO})

	for _, k := range []string{"a", "b", "c"} {
		_ = m.Set(ctx, k, k, 0)
	}
	// Accessing "a" must not save it under FIFO.
	m.Get(ctx, "a")
	_ = m.Set(ctx, "d", "d", 0)

	if _, ok := m.Get(ctx, "a"); ok {
		t.Fatal("expected first inserted key a to be evicted")
	}
}

func TestMemoryEvictionTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 2, DefaultTTL: time.Hour, Eviction: EvictTTL, NoLazyExpiration: true})

	_ = m.Set(ctx, "expired", 1, 10*time.Millisecond)
	_ = m.Set(ctx, "fresh", 2, time.Hour)
	time.Sleep(20 * time.Millisecond)

	_ = m.Set(ctx, "new", 3, time.Hour)

	keys := m.Keys(ctx)
	for _, k := range keys {
		if k == "expired" {
			t.Fatal("TTL eviction should pick the expired entry first")
		}
	}
	if _, ok := m.Get(ctx, "fresh"); !ok {
		t.Fatal("fresh entry should survive TTL eviction")
	}
}

func TestMemoryUpdateDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 2, DefaultTTL: time.Hour})

	_ = m.Set(ctx, "a", 1, 0)
	_ = m.Set(ctx, "b", 2, 0)
	// Overwriting an existing key at capacity must not evict anything.
	_ = m.Set(ctx, "a", 10, 0)

	if got := m.Len(ctx); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if v, _ := m.Get(ctx, "a"); v != 10 {
		t.Fatalf("got %v, want updated value 10", v)
	}
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 10, DefaultTTL: time.Hour})

	for i := 0; i < 5; i++ {
		_ = m.Set(ctx, fmt.Sprintf("k%d", i), i, 0)
	}
	m.Clear(ctx)
	if got := m.Len(ctx); got != 0 {
		t.Fatalf("Len = %d after Clear, want 0", got)
	}
	if _, ok := m.Get(ctx, "k0"); ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestMemoryEntryMetadata(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 10, DefaultTTL: time.Hour})

	_ = m.Set(ctx, "a", "value", 0)
	m.Get(ctx, "a")
	m.Get(ctx, "a")

	e, ok := m.Entry("a")
	if !ok {
		t.Fatal("Entry should find existing key")
	}
	if e.AccessCount != 2 {
		t.Fatalf("AccessCount = %d, want 2", e.AccessCount)
	}
	if e.Size <= 0 {
		t.Fatalf("Size = %d, want > 0", e.Size)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{MaxSize: 100, DefaultTTL: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d", j%20)
				_ = m.Set(ctx, key, n, 0)
				m.Get(ctx, key)
				if j%10 == 0 {
					m.Delete(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()

	if got := m.Len(ctx); got > 100 {
		t.Fatalf("Len = %d, exceeds MaxSize", got)
	}
}
