package model

import "time"

// Decision sources, recorded on results and in the history store.
const (
	SourceCache    = "cache"
	SourceLearned  = "learned"
	SourceRule     = "rule"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Default categories assigned by the direction-based fallback. The category
// catalog is open: rules, learned patterns and the oracle may introduce new
// category strings without any schema change.
const (
	DefaultExpenseCategory = "Other Expenses"
	DefaultIncomeCategory  = "Income"
)

// ReasonFallbackHeuristic tags results produced by the direction fallback.
const ReasonFallbackHeuristic = "fallback:heuristic"

// FallbackConfidence is the fixed confidence of a direction-based default.
const FallbackConfidence = 0.4

// CategorizationResult is the outcome of one categorization.
type CategorizationResult struct {
	Category    string   `json:"category"`
	Merchant    string   `json:"merchant"`
	Fingerprint string   `json:"fingerprint"`
	Source      string   `json:"source"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Reasons     []string `json:"reasons"`
	Confidence  float64  `json:"confidence"`
	AIEnhanced  bool     `json:"ai_enhanced"`
}

// StageOutcome is the result of one pipeline stage. A stage either hits with
// a category or misses; the orchestrator's policy is a total function over
// these outcomes rather than relying on errors for control flow.
type StageOutcome struct {
	Category   string
	Reason     string
	Confidence float64
	Hit        bool
}

// Miss is the zero outcome, returned by a stage that has nothing to say.
func Miss() StageOutcome {
	return StageOutcome{}
}

// Hit builds a positive stage outcome.
func Hit(category string, confidence float64, reason string) StageOutcome {
	return StageOutcome{Hit: true, Category: category, Confidence: confidence, Reason: reason}
}

// CacheEntry is the durable envelope around a cached result.
type CacheEntry struct {
	Timestamp time.Time            `json:"timestamp"`
	Data      CategorizationResult `json:"data"`
}
