package ratelimit

import (
	"sync"
	"time"
)

// Adaptive wraps a token bucket whose limit is retuned from the success
// rate callers report. Unlike the other algorithms its correctness depends
// on caller discipline: every guarded operation should end in exactly one
// ReportSuccess or ReportFailure.
//
// Every AdjustmentInterval the limit is recomputed from the interval's
// success rate: above 90% the limit grows by 20% (capped at twice the base
// limit); below Config.AdaptiveThreshold it shrinks by 20% (floored at a
// tenth of the base limit). Counters reset after each adjustment.
type Adaptive struct {
	base Config

	mu             sync.Mutex
	bucket         *TokenBucket
	currentLimit   int
	successCount   int
	failureCount   int
	lastAdjustment time.Time
}

// NewAdaptive creates an adaptive limiter from the base config.
func NewAdaptive(cfg Config) *Adaptive {
	cfg = cfg.withDefaults()
	return &Adaptive{
		base:           cfg,
		bucket:         NewTokenBucket(cfg.MaxRequests, cfg.ratePerSecond()),
		currentLimit:   cfg.MaxRequests,
		lastAdjustment: time.Now(),
	}
}

// Acquire tries to consume n units, adjusting the limit first when the
// adjustment interval has elapsed.
func (a *Adaptive) Acquire(n int) bool {
	a.mu.Lock()
	a.adjustLocked()
	bucket := a.bucket
	a.mu.Unlock()

	return bucket.Acquire(n)
}

// WaitTime reports the wait time of the underlying bucket.
func (a *Adaptive) WaitTime(n int) time.Duration {
	a.mu.Lock()
	bucket := a.bucket
	a.mu.Unlock()
	return bucket.WaitTime(n)
}

// ReportSuccess records a successful guarded operation.
func (a *Adaptive) ReportSuccess() {
	a.mu.Lock()
	a.successCount++
	a.mu.Unlock()
}

// ReportFailure records a failed guarded operation.
func (a *Adaptive) ReportFailure() {
	a.mu.Lock()
	a.failureCount++
	a.mu.Unlock()
}

// CurrentLimit returns the limit currently in effect.
func (a *Adaptive) CurrentLimit() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentLimit
}

// Snapshot returns the limiter's current state.
func (a *Adaptive) Snapshot() Snapshot {
	a.mu.Lock()
	bucket := a.bucket
	limit := a.currentLimit
	a.mu.Unlock()

	s := bucket.Snapshot()
	s.Algorithm = AdaptiveAlgorithm
	s.CurrentLimit = limit
	return s
}

func (a *Adaptive) adjustLocked() {
	now := time.Now()
	if now.Sub(a.lastAdjustment) < a.base.AdjustmentInterval {
		return
	}

	total := a.successCount + a.failureCount
	if total == 0 {
		return
	}

	rate := float64(a.successCount) / float64(total)
	newLimit := a.currentLimit

	switch {
	case rate > 0.9:
		newLimit = int(float64(a.currentLimit) * 1.2)
		if ceil := a.base.MaxRequests * 2; newLimit > ceil {
			newLimit = ceil
		}
	case rate < a.base.AdaptiveThreshold:
		newLimit = int(float64(a.currentLimit) * 0.8)
		if floor := a.base.MaxRequests / 10; newLimit < floor {
			newLimit = floor
		}
		if newLimit < 1 {
			newLimit = 1
		}
	}

	if newLimit != a.currentLimit {
		a.currentLimit = newLimit
		a.bucket = NewTokenBucket(newLimit, float64(newLimit)/a.base.TimeWindow.Seconds())
	}

	a.successCount = 0
	a.failureCount = 0
	a.lastAdjustment = now
}

// Reporter is implemented by limiters that learn from call outcomes.
type Reporter interface {
	ReportSuccess()
	ReportFailure()
}

var (
	_ Limiter  = (*Adaptive)(nil)
	_ Reporter = (*Adaptive)(nil)
)
