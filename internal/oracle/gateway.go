package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Veraticus/pigeonhole/internal/common"
	"github.com/Veraticus/pigeonhole/internal/model"
)

const (
	// DefaultTimeout bounds a single oracle call. Exceeding it is a
	// failure, never a partial result.
	DefaultTimeout = 30 * time.Second

	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxAttempts    = 3
)

// Gateway wraps a Client with the call policy the orchestrator relies on:
// a hard per-call timeout, retries with exponential backoff on transient
// failures, and single-flight coalescing per fingerprint. Concurrent
// callers sharing a fingerprint trigger at most one upstream call and all
// observe its outcome; the in-flight handle is dropped once the call
// settles, success or failure.
type Gateway struct {
	client    Client
	timeout   time.Duration
	retryOpts common.RetryOptions
	group     singleflight.Group
}

// NewGateway creates a gateway around client. A zero timeout means
// DefaultTimeout.
func NewGateway(client Client, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gateway{
		client:  client,
		timeout: timeout,
		retryOpts: common.RetryOptions{
			MaxAttempts:  defaultMaxAttempts,
			InitialDelay: defaultInitialBackoff,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Classify calls the oracle for the transaction identified by fingerprint.
// The shared return reports whether this caller attached to another
// caller's in-flight request instead of issuing its own.
func (g *Gateway) Classify(ctx context.Context, fingerprint string, req model.CategorizationRequest, categories []string) (Suggestion, bool, error) {
	v, err, shared := g.group.Do(fingerprint, func() (any, error) {
		return g.classifyOnce(ctx, req, categories)
	})
	if err != nil {
		return Suggestion{}, shared, err
	}

	suggestion, ok := v.(Suggestion)
	if !ok {
		return Suggestion{}, shared, fmt.Errorf("unexpected oracle result type %T", v)
	}

	if shared {
		slog.Debug("Coalesced oracle call", "fingerprint", fingerprint)
	}

	return suggestion, shared, nil
}

func (g *Gateway) classifyOnce(ctx context.Context, req model.CategorizationRequest, categories []string) (Suggestion, error) {
	var suggestion Suggestion

	err := common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var callErr error
		suggestion, callErr = g.client.Classify(callCtx, req, categories)
		return callErr
	}, g.retryOpts)
	if err != nil {
		return Suggestion{}, fmt.Errorf("oracle classification failed: %w", err)
	}

	return suggestion, nil
}
