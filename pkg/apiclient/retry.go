package apiclient

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy matches the config defaults.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// backoff returns the wait before the given retry (1-based).
func (p RetryPolicy) backoff(retry int) time.Duration {
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(retry-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}

	return delay
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}

	return p.MaxAttempts
}

// isRetryable: network errors, per-attempt timeouts and 5xx/429 are retried.
// Cancellation of the caller's context is checked separately by the caller.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDecode) || errors.Is(err, ErrEmptyDeviceID) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	return true
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
