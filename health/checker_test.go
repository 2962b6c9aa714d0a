package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestWorst(t *testing.T) {
	tests := []struct {
		a, b, want Status
	}{
		{StatusHealthy, StatusHealthy, StatusHealthy},
		{StatusHealthy, StatusDegraded, StatusDegraded},
		{StatusDegraded, StatusHealthy, StatusDegraded},
		{StatusDegraded, StatusUnhealthy, StatusUnhealthy},
		{StatusUnhealthy, StatusHealthy, StatusUnhealthy},
	}
	for _, tt := range tests {
		if got := worst(tt.a, tt.b); got != tt.want {
			t.Errorf("worst(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	probeErr := errors.New("connection refused")

	healthy := Healthy("all good")
	if healthy.Status != StatusHealthy || healthy.Message != "all good" {
		t.Errorf("Healthy() = %+v", healthy)
	}
	if healthy.Timestamp.IsZero() {
		t.Error("Healthy() should stamp the result")
	}

	degraded := Degraded("slow")
	if degraded.Status != StatusDegraded || degraded.Message != "slow" {
		t.Errorf("Degraded() = %+v", degraded)
	}

	unhealthy := Unhealthy("down", probeErr)
	if unhealthy.Status != StatusUnhealthy || !errors.Is(unhealthy.Error, probeErr) {
		t.Errorf("Unhealthy() = %+v", unhealthy)
	}
}

func TestResultWith(t *testing.T) {
	base := Healthy("ok")

	detailed := base.WithDetails(map[string]any{"entries": 7})
	if detailed.Details["entries"] != 7 {
		t.Errorf("WithDetails result = %+v", detailed)
	}
	if base.Details != nil {
		t.Error("WithDetails should not mutate the receiver")
	}

	timed := base.WithDuration(5 * time.Millisecond)
	if timed.Duration != 5*time.Millisecond {
		t.Errorf("WithDuration result = %+v", timed)
	}
}

func TestCheckerFunc(t *testing.T) {
	called := false
	checker := NewCheckerFunc("probe", func(ctx context.Context) Result {
		called = true
		return Healthy("ok")
	})

	if checker.Name() != "probe" {
		t.Errorf("Name() = %q", checker.Name())
	}
	result := checker.Check(context.Background())
	if !called || result.Status != StatusHealthy {
		t.Errorf("Check() = %+v, called = %v", result, called)
	}
}

func TestCheckerFunc_SeesContext(t *testing.T) {
	type ctxKey struct{}
	checker := NewCheckerFunc("probe", func(ctx context.Context) Result {
		if ctx.Value(ctxKey{}) != "marker" {
			return Unhealthy("context not propagated", nil)
		}
		return Healthy("ok")
	})

	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	if result := checker.Check(ctx); result.Status != StatusHealthy {
		t.Errorf("Check() = %+v", result)
	}
}
