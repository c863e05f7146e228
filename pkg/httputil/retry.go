package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or any error it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt; doubles after each failure
	MaxDelay time.Duration // upper bound for a single wait; 0 means unbounded
}

// DefaultPolicy is used when a client is given no policy.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. fn receives the zero-based attempt number.
// Returns the last error, or ctx.Err() if ctx is cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		if lastErr = fn(i); lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || i == attempts-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if p.MaxDelay > 0 {
			delay = min(delay, p.MaxDelay)
		}
	}
	return lastErr
}
