// Package common provides shared utilities used across the engine.
package common

import (
	"context"
	"errors"
)

// Application errors.
var (
	// ErrRateLimit indicates the oracle's rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("not found")
	// ErrMissingConfig indicates required configuration is absent.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidConfig indicates configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
