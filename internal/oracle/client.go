// Package oracle is the gateway to the external classification service:
// a bounded-timeout, retrying client with single-flight coalescing per
// transaction fingerprint.
package oracle

import (
	"context"

	"github.com/Veraticus/pigeonhole/internal/model"
)

// Suggestion is the oracle's answer for one transaction.
type Suggestion struct {
	Category   string
	Reasoning  string
	Confidence float64
}

// Client calls the external classification service. Implementations map
// transport failures onto common.RetryableError so the gateway's retry
// policy can distinguish transient from permanent errors.
type Client interface {
	Classify(ctx context.Context, req model.CategorizationRequest, categories []string) (Suggestion, error)
}
