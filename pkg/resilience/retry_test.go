package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "search", fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: connection reset", apperrors.ErrUpstreamTransient)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryNonTransientFailsFast(t *testing.T) {
	calls := 0
	wantErr := fmt.Errorf("%w: bad filter value", apperrors.ErrInvalidInput)
	err := Retry(context.Background(), "search", fastRetry(3), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-transient errors must not be retried)", calls)
	}
}

func TestRetryExhaustionWrapsUnavailable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "search", fastRetry(3), func() error {
		calls++
		return fmt.Errorf("%w: 503", apperrors.ErrUpstreamTransient)
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		t.Errorf("exhausted retry should wrap ErrUpstreamUnavailable, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrUpstreamTransient) {
		t.Errorf("exhausted retry should preserve the last error, got %v", err)
	}
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2, JitterFraction: 0.1}
	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, "search", cfg, func() error {
			calls++
			return fmt.Errorf("%w: flaky", apperrors.ErrUpstreamTransient)
		})
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not abort on cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestComputeDelayBounded(t *testing.T) {
	cfg := fastRetry(10)
	for attempt := 1; attempt <= 10; attempt++ {
		d := computeDelay(attempt, cfg)
		if d < 0 || d > cfg.MaxDelay+time.Millisecond {
			t.Errorf("attempt %d: delay %v outside [0, %v]", attempt, d, cfg.MaxDelay)
		}
	}
}

func TestWithTimeoutTransientOnAttemptDeadline(t *testing.T) {
	err := WithTimeout(context.Background(), 20*time.Millisecond, "slow-op", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, apperrors.ErrUpstreamTransient) {
		t.Errorf("err = %v, want transient (attempt timeouts must be retryable)", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want wrapped deadline exceeded", err)
	}

	if err := WithTimeout(context.Background(), time.Second, "fast-op", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestWithTimeoutParentCancelNotTransient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithTimeout(ctx, time.Second, "cancelled-op", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, apperrors.ErrUpstreamTransient) {
		t.Error("parent cancellation must not be classified transient")
	}
}

func TestWithTimeoutComposesWithRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "search", fastRetry(3), func() error {
		return WithTimeout(context.Background(), 5*time.Millisecond, "search", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (timed-out attempts should be retried)", calls)
	}
}
