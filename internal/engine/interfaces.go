// Package engine implements the decision orchestrator that sequences the
// cache, learned memory, rule engine and oracle gateway into a single
// categorization contract.
package engine

import (
	"context"

	"github.com/Veraticus/pigeonhole/internal/model"
	"github.com/Veraticus/pigeonhole/internal/oracle"
)

// ResultCache is the durable memo of prior results, keyed by the coarse
// cache key.
type ResultCache interface {
	Get(ctx context.Context, key string) (model.CategorizationResult, bool)
	Set(ctx context.Context, key string, result model.CategorizationResult) error
}

// LearnedMemory is the table of user-corrected categories.
type LearnedMemory interface {
	Refresh(ctx context.Context, force bool) error
	Consult(merchant, description string) (model.LearnedPattern, bool)
}

// OracleGateway is the coalescing client to the external classifier. The
// bool return reports whether the call attached to an in-flight request.
type OracleGateway interface {
	Classify(ctx context.Context, fingerprint string, req model.CategorizationRequest, categories []string) (oracle.Suggestion, bool, error)
}
