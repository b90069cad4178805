package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/pigeonhole/internal/identity"
	"github.com/Veraticus/pigeonhole/internal/model"
	"github.com/Veraticus/pigeonhole/internal/rules"
)

// DefaultMinAIConfidence is the rule-strength threshold below which the
// orchestrator escalates to the oracle.
const DefaultMinAIConfidence = 0.6

// Config holds orchestrator configuration.
type Config struct {
	Registerer       prometheus.Registerer
	Categories       []string
	MinAIConfidence  float64
	BatchConcurrency int
	BatchWindowDelay time.Duration
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MinAIConfidence:  DefaultMinAIConfidence,
		BatchConcurrency: 3,
		BatchWindowDelay: 100 * time.Millisecond,
	}
}

// Engine is the decision orchestrator. It owns no goroutines; all shared
// mutable state (cache, learned table, coalescing maps) lives in its
// collaborators, constructed once at process start.
type Engine struct {
	cache      ResultCache
	learned    LearnedMemory
	rules      rules.Classifier
	gateway    OracleGateway
	metrics    *Metrics
	categories []string
	minAIConf  float64
	batchConc  int
	batchDelay time.Duration
}

// New creates an orchestrator. gateway may be nil when no oracle
// credential is configured; the pipeline then skips straight from rules to
// the direction fallback.
func New(cache ResultCache, learned LearnedMemory, ruleEngine rules.Classifier, gateway OracleGateway, cfg Config) *Engine {
	if cfg.MinAIConfidence <= 0 || cfg.MinAIConfidence > 1 {
		cfg.MinAIConfidence = DefaultMinAIConfidence
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 3
	}
	if cfg.BatchWindowDelay < 0 {
		cfg.BatchWindowDelay = 100 * time.Millisecond
	}

	return &Engine{
		cache:      cache,
		learned:    learned,
		rules:      ruleEngine,
		gateway:    gateway,
		metrics:    NewMetrics(cfg.Registerer),
		categories: cfg.Categories,
		minAIConf:  cfg.MinAIConfidence,
		batchConc:  cfg.BatchConcurrency,
		batchDelay: cfg.BatchWindowDelay,
	}
}

// Categorize runs the layered decision policy for one transaction. It
// absorbs all subordinate failures and always returns a usable result; the
// worst case is a low-confidence direction-based default.
func (e *Engine) Categorize(ctx context.Context, req model.CategorizationRequest) model.CategorizationResult {
	cacheKey := identity.CacheKey(req.Description, req.Merchant, req.Amount, req.Currency)

	// Step 1: cache lookup under the coarse economic-shape key.
	if cached, ok := e.cache.Get(ctx, cacheKey); ok {
		e.metrics.recordDecision(model.SourceCache)
		slog.Debug("Cache hit", "key", cacheKey, "category", cached.Category)
		return cached
	}

	merchant := identity.NormalizeMerchant(req.Merchant)
	if merchant == "" {
		merchant = identity.NormalizeMerchant(req.Description)
	}
	fingerprint := identity.Fingerprint(req.Amount, req.Date, merchant, req.AccountSuffix, req.MessageID)

	outcome := e.decide(ctx, req, merchant, fingerprint)

	result := model.CategorizationResult{
		Category:    outcome.stage.Category,
		Confidence:  outcome.stage.Confidence,
		Reasons:     []string{outcome.stage.Reason},
		Merchant:    merchant,
		Fingerprint: fingerprint,
		Source:      outcome.source,
		AIEnhanced:  outcome.aiEnhanced,
		Reasoning:   outcome.reasoning,
	}

	e.metrics.recordDecision(outcome.source)

	// Every path writes back before returning; a failed write degrades
	// to a recompute on the next call, never to a caller-visible error.
	if err := e.cache.Set(ctx, cacheKey, result); err != nil {
		if e.metrics != nil {
			e.metrics.cacheWriteFailures.Inc()
		}
		slog.Warn("Cache write-back failed", "key", cacheKey, "error", err)
	}

	return result
}

// decision is the internal outcome of the policy stages 2-5.
type decision struct {
	source     string
	reasoning  string
	stage      model.StageOutcome
	aiEnhanced bool
}

// decide runs steps 2-5 of the policy: learned memory, rules, oracle,
// direction fallback.
func (e *Engine) decide(ctx context.Context, req model.CategorizationRequest, merchant, fingerprint string) decision {
	// Step 2: learned memory. An explicit user correction always wins.
	if learned := e.consultLearned(ctx, req); learned.Hit {
		return decision{stage: learned, source: model.SourceLearned}
	}

	// Step 3: deterministic rules.
	ruleMatch := e.rules.Classify(textBag(req))
	if ruleMatch.Hit && ruleMatch.Strength >= e.minAIConf && !req.UseAI {
		return decision{
			stage:  model.Hit(ruleMatch.Category, ruleMatch.Strength, ruleMatch.Reason),
			source: model.SourceRule,
		}
	}

	// Step 4: the oracle, when configured. Reached when the caller forced
	// AI, the rule missed, or its confidence fell short.
	if e.gateway != nil {
		if e.metrics != nil {
			e.metrics.oracleCalls.Inc()
		}
		suggestion, shared, err := e.gateway.Classify(ctx, fingerprint, req, e.categories)
		if shared && e.metrics != nil {
			e.metrics.oracleCoalesced.Inc()
		}
		if err == nil {
			return decision{
				stage:      model.Hit(suggestion.Category, suggestion.Confidence, "ai:oracle"),
				source:     model.SourceAI,
				aiEnhanced: true,
				reasoning:  suggestion.Reasoning,
			}
		}
		if e.metrics != nil {
			e.metrics.oracleErrors.Inc()
		}
		slog.Warn("Oracle classification failed, falling back",
			"fingerprint", fingerprint,
			"error", err)
	}

	// Step 5: direction-based fallback. A low-confidence rule hit is not
	// trusted over the honest default.
	return decision{stage: directionFallback(req), source: model.SourceFallback}
}

func (e *Engine) consultLearned(ctx context.Context, req model.CategorizationRequest) model.StageOutcome {
	if e.learned == nil {
		return model.Miss()
	}

	if err := e.learned.Refresh(ctx, false); err != nil {
		slog.Warn("Learned memory refresh failed", "error", err)
	}

	pattern, ok := e.learned.Consult(req.Merchant, req.Description)
	if !ok {
		return model.Miss()
	}

	return model.Hit(pattern.Category, pattern.Confidence,
		fmt.Sprintf("learned:%d-votes", pattern.Votes))
}

// directionFallback assigns the fixed low-confidence default derived from
// the transaction's direction.
func directionFallback(req model.CategorizationRequest) model.StageOutcome {
	category := model.DefaultExpenseCategory
	if req.Type == model.TypeIncome || (req.Type != model.TypeExpense && req.Amount > 0) {
		category = model.DefaultIncomeCategory
	}

	return model.Hit(category, model.FallbackConfidence, model.ReasonFallbackHeuristic)
}

// textBag concatenates the request's text fields for rule matching.
func textBag(req model.CategorizationRequest) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", req.Description, req.Merchant, req.Type))
}
