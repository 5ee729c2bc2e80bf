// Package httputil provides retry support for outbound HTTP requests.
package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. Wrap network errors and 5xx
// responses in it so [Retry] attempts the operation again; anything not
// wrapped is treated as permanent.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError. A nil error stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Retry runs fn until it succeeds, fails permanently, or attempts are
// exhausted. The wait doubles after each failed attempt, starting at delay.
// A cancelled context interrupts the wait and returns ctx.Err(); after the
// final attempt the last error is returned as-is.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with the defaults used for mirror requests:
// three attempts starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
