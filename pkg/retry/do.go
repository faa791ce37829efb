package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPermanent marks an error that must not be retried.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so Do stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// sleep is swapped in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, returns a permanent error, the context ends
// or the policy's attempts are used up. The last error is returned.
func Do(ctx context.Context, policy Policy, params Params, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	params.PolicyID = policy.PolicyID

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			p := params
			p.AttemptIndex = i
			if serr := sleep(ctx, ComputeBackoff(p, policy)); serr != nil {
				return fmt.Errorf("%s: %w (last error: %v)", params.Operation, serr, err)
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			return err
		}
	}
	return fmt.Errorf("%s: %d attempts: %w", params.Operation, attempts, err)
}
