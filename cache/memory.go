package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-memory cache backend with configurable eviction.
type Memory struct {
	instrumentation
	cfg Config

	mu      sync.Mutex
	entries map[string]*Entry
	// access order for LRU; front is the least recently touched key.
	order map[string]*list.Element
	lru   *list.List
	// observed access frequency and insertion sequence for LFU.
	freq    map[string]int
	seq     map[string]uint64
	nextSeq uint64
}

// NewMemory creates an in-memory backend.
func NewMemory(cfg Config, opts ...Option) *Memory {
	return &Memory{
		instrumentation: newInstrumentation(opts),
		cfg:             cfg.withDefaults(),
		entries:         make(map[string]*Entry),
		order:           make(map[string]*list.Element),
		lru:             list.New(),
		freq:            make(map[string]int),
		seq:             make(map[string]uint64),
	}
}

// Get retrieves a value. An expired entry is removed and reported as a miss
// when lazy expiration is enabled; otherwise it is returned as-is.
func (m *Memory) Get(_ context.Context, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	if entry.Expired() && !m.cfg.NoLazyExpiration {
		m.removeLocked(key)
		return nil, false
	}

	entry.touch()
	m.touchLocked(key)
	return entry.Value, true
}

// Set stores a value, evicting one entry first when the store is full and
// key is new. ttl <= 0 selects the configured default TTL.
func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.cfg.MaxSize {
		m.evictLocked(ctx)
	}

	m.entries[key] = newEntry(key, value, m.cfg.EffectiveTTL(ttl))
	m.touchLocked(key)
	if _, ok := m.seq[key]; !ok {
		m.seq[key] = m.nextSeq
		m.nextSeq++
	}
	return nil
}

// Delete removes a value, reporting whether it existed.
func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return false
	}
	m.removeLocked(key)
	return true
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*Entry)
	m.order = make(map[string]*list.Element)
	m.lru = list.New()
	m.freq = make(map[string]int)
	m.seq = make(map[string]uint64)
}

// Keys lists the stored keys.
func (m *Memory) Keys(_ context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of stored entries.
func (m *Memory) Len(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entry returns a copy of the entry's metadata, for inspection.
func (m *Memory) Entry(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// touchLocked moves key to the most-recently-used position and bumps its
// observed frequency.
func (m *Memory) touchLocked(key string) {
	if elem, ok := m.order[key]; ok {
		m.lru.MoveToBack(elem)
	} else {
		m.order[key] = m.lru.PushBack(key)
	}
	m.freq[key]++
}

func (m *Memory) removeLocked(key string) {
	delete(m.entries, key)
	if elem, ok := m.order[key]; ok {
		m.lru.Remove(elem)
		delete(m.order, key)
	}
	delete(m.freq, key)
	delete(m.seq, key)
}

// evictLocked removes one entry according to the configured policy.
func (m *Memory) evictLocked(ctx context.Context) {
	victim, ok := m.victimLocked()
	if !ok {
		return
	}
	m.removeLocked(victim)
	m.metrics.RecordCacheEviction(ctx, m.cfg.Eviction.String())
}

func (m *Memory) victimLocked() (string, bool) {
	if len(m.entries) == 0 {
		return "", false
	}

	switch m.cfg.Eviction {
	case EvictLFU:
		return m.lfuVictimLocked()

	case EvictFIFO:
		var victim string
		var oldest time.Time
		for key, entry := range m.entries {
			if victim == "" || entry.CreatedAt.Before(oldest) {
				victim, oldest = key, entry.CreatedAt
			}
		}
		return victim, victim != ""

	case EvictTTL:
		for key, entry := range m.entries {
			if entry.Expired() {
				return key, true
			}
		}
		fallthrough

	default: // EvictLRU
		front := m.lru.Front()
		if front == nil {
			return "", false
		}
		return front.Value.(string), true
	}
}

// lfuVictimLocked picks the minimum-frequency key, breaking ties by oldest
// insertion so the choice is deterministic.
func (m *Memory) lfuVictimLocked() (string, bool) {
	var victim string
	minFreq := -1
	var minSeq uint64

	for key, f := range m.freq {
		s := m.seq[key]
		if minFreq == -1 || f < minFreq || (f == minFreq && s < minSeq) {
			victim, minFreq, minSeq = key, f, s
		}
	}
	return victim, victim != ""
}

// Ensure Memory implements Backend.
var _ Backend = (*Memory)(nil)
