package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentkit/agentkit/observe"
)

const fileSuffix = ".cache"

// fileEnvelope is the on-disk representation of an entry. The format is an
// implementation detail, not a contract.
type fileEnvelope struct {
	Key        string    `json:"key"`
	Value      any       `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

func (e *fileEnvelope) expired() bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return time.Since(e.CreatedAt).Seconds() > e.TTLSeconds
}

// File is a file-based cache backend. Each key maps through a one-way hash
// to a file under the cache directory, so arbitrary keys stay safe for the
// filesystem. Values round-trip through JSON; numbers come back as float64.
//
// I/O failures degrade to misses and failed sets rather than panics.
type File struct {
	instrumentation
	cfg Config
	dir string

	mu sync.Mutex
}

// NewFile creates a file-based backend rooted at dir, creating it when
// missing.
func NewFile(dir string, cfg Config, opts ...Option) (*File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &File{
		instrumentation: newInstrumentation(opts),
		cfg:             cfg.withDefaults(),
		dir:             dir,
	}, nil
}

// Get reads a value, deleting the file when the entry has expired.
func (f *File) Get(ctx context.Context, key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		f.log.Warn(ctx, "file cache entry corrupt, removing",
			observe.F("key", key), observe.F("error", err))
		_ = os.Remove(path)
		return nil, false
	}

	if env.expired() {
		_ = os.Remove(path)
		return nil, false
	}

	return env.Value, true
}

// Set writes a value. ttl <= 0 selects the configured default TTL.
func (f *File) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	env := fileEnvelope{
		Key:        key,
		Value:      value,
		CreatedAt:  time.Now(),
		TTLSeconds: f.cfg.EffectiveTTL(ttl).Seconds(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		f.log.Warn(ctx, "file cache set failed to encode",
			observe.F("key", key), observe.F("error", err))
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}

	if err := os.WriteFile(f.path(key), data, 0o600); err != nil {
		f.log.Warn(ctx, "file cache set failed to write",
			observe.F("key", key), observe.F("error", err))
		return fmt.Errorf("%w: write %q: %w", ErrSetFailed, key, err)
	}
	return nil
}

// Delete removes the file for key, reporting whether it existed.
func (f *File) Delete(_ context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.Remove(f.path(key)) == nil
}

// Clear removes every cache file in the directory.
func (f *File) Clear(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, path := range f.files(ctx) {
		_ = os.Remove(path)
	}
}

// Keys reads every cache file's envelope to recover the original keys.
func (f *File) Keys(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for _, path := range f.files(ctx) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env fileEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		keys = append(keys, env.Key)
	}
	return keys
}

// Len reports the number of cache files.
func (f *File) Len(ctx context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files(ctx))
}

// Dir returns the backing directory.
func (f *File) Dir() string { return f.dir }

func (f *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+fileSuffix)
}

func (f *File) files(ctx context.Context) []string {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*"+fileSuffix))
	if err != nil {
		f.log.Warn(ctx, "file cache listing failed", observe.F("error", err))
		return nil
	}
	return matches
}

var _ Backend = (*File)(nil)
