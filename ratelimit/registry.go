package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentkit/agentkit/observe"
)

// CheckOptions narrows an acquisition to a (user, resource) pair so that
// hierarchical limits apply.
type CheckOptions struct {
	UserID   string
	Resource string
}

// Registry holds named limiters, hierarchical per-(user, resource) limits,
// global limits, and per-call-site backoff state.
type Registry struct {
	log     observe.Logger
	metrics *observe.Metrics

	mu           sync.Mutex
	limiters     map[string]Limiter
	configs      map[string]Config
	hierarchical map[string]map[string]Config // user -> resource -> config
	globals      map[string]Limiter
	backoffs     map[string]time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(log observe.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithMetrics sets the registry metrics recorder.
func WithMetrics(m *observe.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		log:          observe.NopLogger(),
		limiters:     make(map[string]Limiter),
		configs:      make(map[string]Config),
		hierarchical: make(map[string]map[string]Config),
		globals:      make(map[string]Limiter),
		backoffs:     make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddLimiter registers a named limiter under the given scope. Registering
// the same scope:name again replaces the limiter and resets its state.
func (r *Registry) AddLimiter(name string, cfg Config, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLimiterLocked(name, cfg, scope)
}

func (r *Registry) addLimiterLocked(name string, cfg Config, scope string) {
	cfg = cfg.withDefaults()
	key := scope + ":" + name
	r.limiters[key] = New(cfg)
	r.configs[key] = cfg
	r.log.Info(context.Background(), "added rate limiter",
		observe.F("limiter", key),
		observe.F("algorithm", cfg.Algorithm.String()),
	)
}

// AddGlobalLimiter registers a limiter checked on every acquisition,
// regardless of name and scope.
func (r *Registry) AddGlobalLimiter(name string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = New(cfg.withDefaults())
}

// AddHierarchicalLimit registers a per-(user, resource) limit. The backing
// limiter is created lazily on the first acquisition for that pair.
func (r *Registry) AddHierarchicalLimit(userID, resource string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hierarchical[userID] == nil {
		r.hierarchical[userID] = make(map[string]Config)
	}
	r.hierarchical[userID][resource] = cfg.withDefaults()
}

// Check reports whether a request is allowed by the named limiter AND every
// applicable hierarchical limiter AND every global limiter. The first
// denial aborts the chain; capacity already consumed from earlier limiters
// in the chain is not rolled back. The request is still denied overall, so
// the system over-restricts rather than over-admits.
func (r *Registry) Check(name, scope string, opts CheckOptions) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkLocked(name, scope, opts)
}

func (r *Registry) checkLocked(name, scope string, opts CheckOptions) bool {
	key := scope + ":" + name

	if lim, ok := r.limiters[key]; ok {
		if !lim.Acquire(1) {
			return false
		}
	}

	if opts.UserID != "" && opts.Resource != "" {
		if cfg, ok := r.hierarchical[opts.UserID][opts.Resource]; ok {
			userKey := "user:" + opts.UserID + ":" + opts.Resource
			if _, exists := r.limiters[userKey]; !exists {
				r.addLimiterLocked(opts.UserID+":"+opts.Resource, cfg, "user")
			}
			if !r.limiters[userKey].Acquire(1) {
				return false
			}
		}
	}

	for _, lim := range r.globals {
		if !lim.Acquire(1) {
			return false
		}
	}

	return true
}

// WaitTime reports the longest wait among the named, hierarchical, and
// global limiters that apply to the request.
func (r *Registry) WaitTime(name, scope string, opts CheckOptions) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxWait time.Duration
	key := scope + ":" + name

	if lim, ok := r.limiters[key]; ok {
		if w := lim.WaitTime(1); w > maxWait {
			maxWait = w
		}
	}

	if opts.UserID != "" && opts.Resource != "" {
		userKey := "user:" + opts.UserID + ":" + opts.Resource
		if lim, ok := r.limiters[userKey]; ok {
			if w := lim.WaitTime(1); w > maxWait {
				maxWait = w
			}
		}
	}

	for _, lim := range r.globals {
		if w := lim.WaitTime(1); w > maxWait {
			maxWait = w
		}
	}

	return maxWait
}

// AcquireWithBackoff repeatedly checks the limits, sleeping between denied
// attempts. The sleep starts at one second, grows by the named limiter's
// BackoffFactor, and is capped at its MaxBackoff. The stored backoff resets
// on the first successful acquisition. The sleep honors ctx cancellation.
func (r *Registry) AcquireWithBackoff(ctx context.Context, name, scope string, opts CheckOptions, maxAttempts int) bool {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffKey := fmt.Sprintf("%s:%s:%s:%s", scope, name, opts.UserID, opts.Resource)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if r.Check(name, scope, opts) {
			r.mu.Lock()
			delete(r.backoffs, backoffKey)
			r.mu.Unlock()
			r.metrics.RecordLimiterAcquire(ctx, scope+":"+name, true)
			return true
		}

		if attempt == maxAttempts-1 {
			break
		}

		r.mu.Lock()
		backoff := r.backoffs[backoffKey]
		if backoff <= 0 {
			backoff = time.Second
		} else if cfg, ok := r.configs[scope+":"+name]; ok {
			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
		r.backoffs[backoffKey] = backoff
		r.mu.Unlock()

		r.log.Debug(ctx, "rate limited, backing off",
			observe.F("limiter", scope+":"+name),
			observe.F("backoff", backoff.String()),
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
	}

	r.metrics.RecordLimiterAcquire(ctx, scope+":"+name, false)
	return false
}

// Execute runs op when the limits allow it. A denial returns a
// *LimitExceededError carrying the estimated retry-after. The outcome of op
// is reported to the named limiter when it is adaptive.
func (r *Registry) Execute(ctx context.Context, name, scope string, opts CheckOptions, op func(context.Context) error) error {
	if !r.Check(name, scope, opts) {
		r.metrics.RecordLimiterAcquire(ctx, scope+":"+name, false)
		return &LimitExceededError{
			Name:       name,
			Scope:      scope,
			RetryAfter: r.WaitTime(name, scope, opts),
		}
	}
	r.metrics.RecordLimiterAcquire(ctx, scope+":"+name, true)

	err := op(ctx)

	r.mu.Lock()
	lim := r.limiters[scope+":"+name]
	r.mu.Unlock()
	if reporter, ok := lim.(Reporter); ok {
		if err != nil {
			reporter.ReportFailure()
		} else {
			reporter.ReportSuccess()
		}
	}

	return err
}

// RegistryStats summarizes the registry's contents.
type RegistryStats struct {
	TotalLimiters     int
	HierarchicalUsers int
	GlobalLimiters    int
	ActiveBackoffs    int
	Limiters          map[string]Snapshot
}

// Stats returns a snapshot of all registered limiters.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := RegistryStats{
		TotalLimiters:     len(r.limiters),
		HierarchicalUsers: len(r.hierarchical),
		GlobalLimiters:    len(r.globals),
		Limiters:          make(map[string]Snapshot, len(r.limiters)),
	}
	for key, lim := range r.limiters {
		stats.Limiters[key] = lim.Snapshot()
	}
	for _, b := range r.backoffs {
		if b > 0 {
			stats.ActiveBackoffs++
		}
	}
	return stats
}

// Clear removes every limiter, hierarchical config, and backoff entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters = make(map[string]Limiter)
	r.configs = make(map[string]Config)
	r.hierarchical = make(map[string]map[string]Config)
	r.globals = make(map[string]Limiter)
	r.backoffs = make(map[string]time.Duration)
}
