// Package utils holds timing helpers for retries against remote providers.
package utils

import (
	"context"
	"time"
)

// after is swapped in tests.
var after = time.After

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}

// Backoff returns the exponential delay before retry number attempt
// (starting at 1): base, 2*base, 4*base and so on, capped at limit when
// limit is positive.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30
	}

	delay := base << (attempt - 1)
	if limit > 0 && delay > limit {
		return limit
	}
	return delay
}
