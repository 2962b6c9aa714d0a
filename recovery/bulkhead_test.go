package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBulkheadLimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Execute(ctx, func(context.Context) (any, error) {
				started <- struct{}{}
				<-release
				return nil, nil
			})
		}()
	}
	<-started
	<-started

	// Both slots are held; the third call is rejected immediately.
	if _, err := b.Execute(ctx, succeedingOp); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("err = %v, want ErrBulkheadFull", err)
	}

	close(release)
	wg.Wait()

	// Slots freed; calls pass again.
	if _, err := b.Execute(ctx, succeedingOp); err != nil {
		t.Fatalf("Execute after release: %v", err)
	}

	snap := b.Snapshot()
	if snap.MaxActive != 2 {
		t.Errorf("MaxActive = %d, want 2", snap.MaxActive)
	}
	if snap.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", snap.Rejected)
	}
}

func TestBulkheadMaxWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 200 * time.Millisecond})
	ctx := context.Background()

	if err := b.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		b.Release()
	}()

	// The waiter gets the slot once it frees up inside MaxWait.
	start := time.Now()
	if _, err := b.Execute(ctx, succeedingOp); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Execute returned after %v, expected it to wait for the slot", elapsed)
	}
}

func TestBulkheadContextCancellation(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer b.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := b.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	to := NewTimeout(TimeoutConfig{})
	if to.Config().Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", to.Config().Timeout)
	}
}

func TestTimeoutExpires(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	_, err := to.Execute(context.Background(), func(ctx context.Context) (any, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestTimeoutFastOperationPasses(t *testing.T) {
	op := WrapTimeout(time.Second, succeedingOp)

	result, err := op(context.Background())
	if err != nil || result != "ok" {
		t.Fatalf("op = (%v, %v), want (ok, nil)", result, err)
	}
}
