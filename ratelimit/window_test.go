package ratelimit

import (
	"testing"
	"time"
)

func TestSlidingWindow_ExactLimit(t *testing.T) {
	w := NewSlidingWindow(3, time.Second)

	for i := 0; i < 3; i++ {
		if !w.Acquire(1) {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}
	if w.Acquire(1) {
		t.Error("acquire beyond max requests should fail")
	}
	if got := w.Len(); got != 3 {
		t.Errorf("recorded requests = %d, want 3", got)
	}
}

func TestSlidingWindow_PrunesExpiredEntries(t *testing.T) {
	w := NewSlidingWindow(2, 100*time.Millisecond)

	w.Acquire(1)
	w.Acquire(1)
	if w.Acquire(1) {
		t.Fatal("window full, acquire should fail")
	}

	time.Sleep(150 * time.Millisecond)

	if !w.Acquire(1) {
		t.Error("acquire should succeed after old entries aged out")
	}
	if got := w.Len(); got != 1 {
		t.Errorf("recorded requests after pruning = %d, want 1", got)
	}
}

func TestSlidingWindow_CountNeverExceedsMax(t *testing.T) {
	w := NewSlidingWindow(5, 50*time.Millisecond)

	for i := 0; i < 100; i++ {
		w.Acquire(1)
		if got := w.Len(); got > 5 {
			t.Fatalf("window holds %d entries, max is 5", got)
		}
		if i%20 == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}
}

func TestSlidingWindow_WaitTime(t *testing.T) {
	w := NewSlidingWindow(1, 200*time.Millisecond)

	if got := w.WaitTime(1); got != 0 {
		t.Errorf("wait time on empty window = %s, want 0", got)
	}

	w.Acquire(1)
	got := w.WaitTime(1)
	if got <= 0 || got > 200*time.Millisecond {
		t.Errorf("wait time = %s, want within (0, 200ms]", got)
	}
}

func TestSlidingWindow_AcquireN(t *testing.T) {
	w := NewSlidingWindow(4, time.Second)

	if !w.Acquire(3) {
		t.Fatal("acquiring 3 of 4 should succeed")
	}
	if w.Acquire(2) {
		t.Error("acquiring 2 with 1 slot left should fail")
	}
	if got := w.Len(); got != 3 {
		t.Errorf("failed acquire must not record entries, len = %d, want 3", got)
	}
}
