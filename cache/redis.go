package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentkit/agentkit/observe"
)

// Codec selects the serialization format for the Redis backend.
type Codec int

const (
	// CodecJSON serializes values as JSON. Numbers decode as float64.
	CodecJSON Codec = iota
	// CodecGob serializes values with encoding/gob. Custom types must be
	// registered with gob.Register before use.
	CodecGob
	// CodecText stores the value's string form and returns strings.
	CodecText
)

// String returns the string representation of the codec.
func (c Codec) String() string {
	switch c {
	case CodecJSON:
		return "json"
	case CodecGob:
		return "gob"
	case CodecText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseCodec parses a codec name as used in configuration.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "json", "":
		return CodecJSON, nil
	case "gob":
		return CodecGob, nil
	case "text":
		return CodecText, nil
	default:
		return CodecJSON, fmt.Errorf("cache: unknown codec %q", s)
	}
}

func init() {
	// Common composite types that travel inside gob interfaces.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(time.Time{})
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Prefix namespaces the backend's keys so Clear never touches other
	// data in the same database.
	// Default: "cache:"
	Prefix string

	// Codec selects the value serialization.
	// Default: CodecJSON
	Codec Codec
}

// Redis is a cache backend on a Redis server. Connection and command
// failures degrade to misses and failed sets with a log line; a down Redis
// must never take down the caller.
type Redis struct {
	instrumentation
	cfg    Config
	rc     RedisConfig
	client *goredis.Client
}

// NewRedis creates a Redis backend over an existing client.
func NewRedis(client *goredis.Client, cfg Config, rc RedisConfig, opts ...Option) *Redis {
	if rc.Prefix == "" {
		rc.Prefix = "cache:"
	}
	return &Redis{
		instrumentation: newInstrumentation(opts),
		cfg:             cfg.withDefaults(),
		rc:              rc,
		client:          client,
	}
}

// Client exposes the underlying client, e.g. for health checks.
func (r *Redis) Client() *goredis.Client { return r.client }

// Get retrieves a value. Any backend failure is a miss.
func (r *Redis) Get(ctx context.Context, key string) (any, bool) {
	data, err := r.client.Get(ctx, r.rc.Prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.log.Warn(ctx, "redis get degraded to miss",
				observe.F("key", key), observe.F("error", err))
		}
		return nil, false
	}

	value, err := r.decode(data)
	if err != nil {
		r.log.Warn(ctx, "redis entry undecodable, treating as miss",
			observe.F("key", key), observe.F("error", err))
		return nil, false
	}
	return value, true
}

// Set stores a value with the effective TTL. A failed write is reported as
// an error but never panics or retries.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := r.encode(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}

	if err := r.client.Set(ctx, r.rc.Prefix+key, data, r.cfg.EffectiveTTL(ttl)).Err(); err != nil {
		r.log.Warn(ctx, "redis set failed",
			observe.F("key", key), observe.F("error", err))
		return fmt.Errorf("%w: redis set %q: %w", ErrSetFailed, key, err)
	}
	return nil
}

// Delete removes a value, reporting whether it existed.
func (r *Redis) Delete(ctx context.Context, key string) bool {
	n, err := r.client.Del(ctx, r.rc.Prefix+key).Result()
	if err != nil {
		r.log.Warn(ctx, "redis delete failed",
			observe.F("key", key), observe.F("error", err))
		return false
	}
	return n > 0
}

// Clear removes every key under the backend's prefix.
func (r *Redis) Clear(ctx context.Context) {
	keys := r.scan(ctx)
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn(ctx, "redis clear failed", observe.F("error", err))
	}
}

// Keys lists the stored keys with the prefix stripped.
func (r *Redis) Keys(ctx context.Context) []string {
	raw := r.scan(ctx)
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, r.rc.Prefix))
	}
	return keys
}

// Len reports the number of stored entries.
func (r *Redis) Len(ctx context.Context) int {
	return len(r.scan(ctx))
}

func (r *Redis) scan(ctx context.Context) []string {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.rc.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.log.Warn(ctx, "redis scan failed", observe.F("error", err))
	}
	return keys
}

func (r *Redis) encode(value any) ([]byte, error) {
	switch r.rc.Codec {
	case CodecGob:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecText:
		return []byte(fmt.Sprint(value)), nil
	default:
		return json.Marshal(value)
	}
}

func (r *Redis) decode(data []byte) (any, error) {
	switch r.rc.Codec {
	case CodecGob:
		var value any
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	case CodecText:
		return string(data), nil
	default:
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

var _ Backend = (*Redis)(nil)
