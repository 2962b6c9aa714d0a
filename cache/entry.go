package cache

import (
	"encoding/json"
	"time"
)

// Entry is a stored value with its bookkeeping metadata. Entries are owned
// exclusively by the backend holding them; the multi-level cache copies
// values on promotion rather than sharing entries.
type Entry struct {
	Key          string
	Value        any
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int

	// TTL of zero means the entry never expires.
	TTL time.Duration

	// Size is the approximate serialized size in bytes, 0 when unknown.
	Size int
}

func newEntry(key string, value any, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Key:          key,
		Value:        value,
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          ttl,
		Size:         approxSize(value),
	}
}

// Expired reports whether the entry's TTL has elapsed.
func (e *Entry) Expired() bool {
	if e.TTL <= 0 {
		return false
	}
	return time.Since(e.CreatedAt) > e.TTL
}

// Age returns the time since the entry was created.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// touch updates the access time and count.
func (e *Entry) touch() {
	e.LastAccessed = time.Now()
	e.AccessCount++
}

// approxSize estimates a value's serialized size. Unknown types report 0.
func approxSize(value any) int {
	switch v := value.(type) {
	case string:
		return len(v)
	case []byte:
		return len(v)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return 0
		}
		return len(data)
	}
}
