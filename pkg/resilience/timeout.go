package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
)

// WithTimeout runs fn under a per-attempt deadline derived from ctx, so it
// composes with whatever request deadline the caller already carries. An
// attempt that runs out its own deadline is reported as a transient upstream
// failure, which lets Retry treat a hung upstream like any other upstream
// hiccup; cancellation of the parent context passes through untouched so it
// is never retried. A zero timeout disables the per-attempt bound.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(attemptCtx)
	if err == nil {
		return nil
	}
	if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return fmt.Errorf("%w: %s exceeded attempt limit %v: %w", apperrors.ErrUpstreamTransient, name, timeout, err)
	}
	return err
}
