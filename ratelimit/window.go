package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow limits requests by tracking the exact timestamp of every
// request within a trailing window. It is the only algorithm with perfectly
// precise windowing, at the cost of O(window) memory and pruning.
type SlidingWindow struct {
	maxRequests int
	window      time.Duration

	mu         sync.Mutex
	timestamps []time.Time
}

// NewSlidingWindow creates a sliding window limiter allowing maxRequests
// per window.
func NewSlidingWindow(maxRequests int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		maxRequests: maxRequests,
		window:      window,
	}
}

// Acquire tries to record n requests. Entries older than the window are
// pruned before the check.
func (w *SlidingWindow) Acquire(n int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.pruneLocked(now)

	if len(w.timestamps)+n > w.maxRequests {
		return false
	}
	for i := 0; i < n; i++ {
		w.timestamps = append(w.timestamps, now)
	}
	return true
}

// WaitTime reports how long until n more requests would fit in the window.
func (w *SlidingWindow) WaitTime(n int) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.pruneLocked(now)

	free := w.maxRequests - len(w.timestamps)
	if free >= n {
		return 0
	}

	// The (n-free)-th oldest entry must age out of the window first.
	idx := n - free - 1
	if idx >= len(w.timestamps) {
		idx = len(w.timestamps) - 1
	}
	wait := w.timestamps[idx].Add(w.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Len returns the number of requests currently recorded in the window.
func (w *SlidingWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(time.Now())
	return len(w.timestamps)
}

// Snapshot returns the window's current state.
func (w *SlidingWindow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(time.Now())
	return Snapshot{
		Algorithm: SlidingWindowAlgorithm,
		Capacity:  float64(w.maxRequests),
		Available: float64(w.maxRequests - len(w.timestamps)),
		InFlight:  len(w.timestamps),
	}
}

func (w *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.timestamps) && w.timestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[i:]...)
	}
}

var _ Limiter = (*SlidingWindow)(nil)
