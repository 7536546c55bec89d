// Package retry re-runs idempotent request service calls with exponential
// backoff. Only status queries are retried; creating a request is not
// idempotent and is never passed through this package.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/fetcch-go"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts  int           // Attempts including the first; values below 2 disable retrying
	InitialDelay time.Duration // Delay before the second attempt
	MaxDelay     time.Duration // Upper bound for any single delay
	Multiplier   float64       // Growth factor between delays
}

// DefaultConfig retries twice, starting at 200ms.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

// Retryable reports whether err is worth another attempt.
type Retryable func(error) bool

// Transient reports whether err is a request service failure that may clear
// up on its own: a transport error, a 5xx response or 429. Other 4xx
// responses, protocol errors and cancellation are final.
func Transient(err error) bool {
	if err == nil || !errors.Is(err, fetcch.ErrServiceUnavailable) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var reqErr *fetcch.RequestError
	if !errors.As(err, &reqErr) {
		// No status recorded: the request never got an answer.
		return true
	}
	status, ok := reqErr.Details["status"].(int)
	if !ok {
		return true
	}
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// Delay returns the wait before attempt n (n >= 1 is the first retry).
func (c Config) Delay(n int) time.Duration {
	d := c.InitialDelay
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * c.Multiplier)
		if c.MaxDelay > 0 && d > c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. It stops waiting as soon as ctx is done.
func Do[T any](ctx context.Context, cfg Config, retryable Retryable, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cfg.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryable == nil || !retryable(err) {
			return zero, err
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
