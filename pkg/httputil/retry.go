// Package httputil shapes outbound traffic to the Modrinth API: a
// process-wide request pacer and retry-with-backoff for transient failures.
package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as worth another attempt. The API client
// wraps connection errors and 5xx responses with it; anything else (404s,
// malformed payloads) fails through [Retry] unchanged on the first try.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times, sleeping delay between tries and
// doubling it after each failure. Only errors wrapped in [RetryableError]
// are retried. After the last attempt the last error is returned; a
// cancelled ctx cuts the backoff sleep short and returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with the defaults every API call uses:
// three attempts starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
