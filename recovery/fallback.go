package recovery

import (
	"context"
	"sync"

	"github.com/agentkit/agentkit/observe"
)

// AsyncResult carries the outcome of an asynchronous operation.
type AsyncResult struct {
	Value any
	Err   error
}

// AsyncFunc is an asynchronous operation delivering its result on a
// channel.
type AsyncFunc func(ctx context.Context) <-chan AsyncResult

// Operation adapts an AsyncFunc into a synchronous Operation that honors
// context cancellation while waiting.
func (f AsyncFunc) Operation() Operation {
	return func(ctx context.Context) (any, error) {
		select {
		case res, ok := <-f(ctx):
			if !ok {
				return nil, ctx.Err()
			}
			return res.Value, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// FallbackConfig configures the fallback chain.
type FallbackConfig struct {
	// Func is the fallback operation, tried after the result cache. Use
	// AsyncFunc.Operation to adapt channel-based functions.
	Func Operation

	// Value is a static fallback, tried after Func. A nil Value means no
	// static fallback is configured.
	Value any

	// NoCache disables remembering successful results for reuse as
	// fallbacks.
	NoCache bool
}

// Fallback degrades gracefully when an operation fails: a cached previous
// result, then the fallback function, then the static value, and finally
// the original error.
type Fallback struct {
	config FallbackConfig
	log    observe.Logger

	mu    sync.Mutex
	cache map[string]any
}

// NewFallback creates a fallback chain.
func NewFallback(config FallbackConfig, opts ...Option) *Fallback {
	in := newInstrumentation(opts)
	return &Fallback{
		config: config,
		log:    in.log,
		cache:  make(map[string]any),
	}
}

// Execute runs op and falls back on failure. Successful results are
// remembered under key for future fallbacks unless caching is disabled.
func (f *Fallback) Execute(ctx context.Context, key string, op Operation) (any, error) {
	result, err := op(ctx)
	if err == nil {
		f.Remember(key, result)
		return result, nil
	}
	return f.Recover(ctx, key, err)
}

// Recover walks the fallback chain for a failed call. origErr is returned
// when every tier is exhausted.
func (f *Fallback) Recover(ctx context.Context, key string, origErr error) (any, error) {
	if !f.config.NoCache {
		f.mu.Lock()
		cached, ok := f.cache[key]
		f.mu.Unlock()
		if ok {
			f.log.Info(ctx, "serving cached fallback result", observe.F("key", key))
			return cached, nil
		}
	}

	if f.config.Func != nil {
		result, err := f.config.Func(ctx)
		if err == nil {
			return result, nil
		}
		f.log.Warn(ctx, "fallback function failed",
			observe.F("key", key), observe.F("error", err))
	}

	if f.config.Value != nil {
		return f.config.Value, nil
	}

	return nil, origErr
}

// Remember stores a result for future fallbacks. No-op when caching is
// disabled.
func (f *Fallback) Remember(key string, value any) {
	if f.config.NoCache {
		return
	}
	f.mu.Lock()
	f.cache[key] = value
	f.mu.Unlock()
}

// ClearCache drops all remembered results.
func (f *Fallback) ClearCache() {
	f.mu.Lock()
	f.cache = make(map[string]any)
	f.mu.Unlock()
}
