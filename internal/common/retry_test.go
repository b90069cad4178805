package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &RetryableError{Err: errors.New("transient"), Retryable: true}
		}
		return nil
	}, fastOpts())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	permanent := &RetryableError{Err: errors.New("bad request"), Retryable: false}

	err := WithRetry(context.Background(), func() error {
		attempts++
		return permanent
	}, fastOpts())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.NotErrorIs(t, err, ErrMaxRetries)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("still down"), Retryable: true}
	}, fastOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := WithRetry(ctx, func() error {
		attempts++
		cancel()
		return &RetryableError{Err: errors.New("transient"), Retryable: true}
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		expected bool
	}{
		{name: "rate limit", err: ErrRateLimit, expected: true},
		{name: "deadline", err: context.DeadlineExceeded, expected: true},
		{name: "flagged retryable", err: &RetryableError{Err: errors.New("x"), Retryable: true}, expected: true},
		{name: "flagged permanent", err: &RetryableError{Err: errors.New("x"), Retryable: false}, expected: false},
		{name: "plain error", err: errors.New("x"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}
