package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/pigeonhole/internal/cache"
	"github.com/Veraticus/pigeonhole/internal/model"
	"github.com/Veraticus/pigeonhole/internal/oracle"
	"github.com/Veraticus/pigeonhole/internal/rules"
)

func cotoRules(t *testing.T) *rules.PatternEngine {
	t.Helper()
	engine, err := rules.NewPatternEngine([]rules.Pattern{
		{Name: "Coto", Category: "Supermarket", Regex: `COTO`, Priority: 10, Strength: 0.9},
		{Name: "Weak Kiosk", Category: "Kiosk", Regex: `KIOSCO`, Priority: 5, Strength: 0.3},
	})
	require.NoError(t, err)
	return engine
}

func cotoRequest() model.CategorizationRequest {
	return model.CategorizationRequest{
		Description: "SUPERMERCADO COTO",
		Amount:      -4300,
		Currency:    "ARS",
	}
}

func TestCategorizeRuleHit(t *testing.T) {
	gateway := &MockGateway{}
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	result := eng.Categorize(context.Background(), cotoRequest())

	assert.Equal(t, "Supermarket", result.Category)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, model.SourceRule, result.Source)
	assert.False(t, result.AIEnhanced)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Equal(t, 0, gateway.Calls, "a strong rule hit never reaches the oracle")
}

func TestCategorizeIdempotentWithinTTL(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	gateway := &MockGateway{Suggestion: oracle.Suggestion{Category: "Groceries", Confidence: 0.8}}
	eng := New(store, &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	req := model.CategorizationRequest{
		Description: "UNMATCHED VENDOR",
		Amount:      -900,
		Currency:    "ARS",
	}

	first := eng.Categorize(context.Background(), req)
	second := eng.Categorize(context.Background(), req)

	assert.Equal(t, first, second, "identical requests within the TTL return identical results")
	assert.LessOrEqual(t, gateway.Calls, 1, "the oracle is invoked at most once across both calls")

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EntryCount, "the repeat call must not grow the cache")
}

func TestCategorizeLearnedPrecedesRules(t *testing.T) {
	learned := &MockLearned{
		HasPattern: true,
		Pattern:    model.LearnedPattern{Category: "Household", Confidence: 0.88, Votes: 7},
	}
	gateway := &MockGateway{}
	eng := New(NewMockCache(), learned, cotoRules(t), gateway, DefaultConfig())

	result := eng.Categorize(context.Background(), cotoRequest())

	assert.Equal(t, "Household", result.Category, "an explicit user correction always wins over rules")
	assert.InDelta(t, 0.88, result.Confidence, 1e-9)
	assert.Equal(t, model.SourceLearned, result.Source)
	assert.Equal(t, 1, learned.RefreshCalls)
	assert.Equal(t, 0, gateway.Calls)
}

func TestCategorizeWeakRuleEscalatesToOracle(t *testing.T) {
	gateway := &MockGateway{Suggestion: oracle.Suggestion{
		Category:   "Snacks",
		Confidence: 0.75,
		Reasoning:  "corner-store purchase",
	}}
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	result := eng.Categorize(context.Background(), model.CategorizationRequest{
		Description: "KIOSCO 25 DE MAYO",
		Amount:      -500,
		Currency:    "ARS",
	})

	assert.Equal(t, 1, gateway.Calls, "a rule below the confidence threshold escalates")
	assert.Equal(t, "Snacks", result.Category)
	assert.True(t, result.AIEnhanced)
	assert.Equal(t, "corner-store purchase", result.Reasoning)
	assert.Equal(t, model.SourceAI, result.Source)
}

func TestCategorizeUseAIForcesOracle(t *testing.T) {
	gateway := &MockGateway{Suggestion: oracle.Suggestion{Category: "Groceries", Confidence: 0.95}}
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	req := cotoRequest()
	req.UseAI = true
	result := eng.Categorize(context.Background(), req)

	assert.Equal(t, 1, gateway.Calls, "UseAI bypasses even a strong rule hit")
	assert.Equal(t, "Groceries", result.Category)
	assert.True(t, result.AIEnhanced)
}

func TestCategorizeFallbackDirections(t *testing.T) {
	tests := []struct {
		name             string
		txType           model.TransactionType
		expectedCategory string
		amount           float64
	}{
		{
			name:             "negative amount falls back to expense default",
			amount:           -4300,
			expectedCategory: model.DefaultExpenseCategory,
		},
		{
			name:             "positive amount falls back to income default",
			amount:           50000,
			expectedCategory: model.DefaultIncomeCategory,
		},
		{
			name:             "expense hint wins over positive amount",
			amount:           120,
			txType:           model.TypeExpense,
			expectedCategory: model.DefaultExpenseCategory,
		},
		{
			name:             "income hint wins over negative amount",
			amount:           -120,
			txType:           model.TypeIncome,
			expectedCategory: model.DefaultIncomeCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No rule match, no learned pattern, no oracle configured.
			eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), nil, DefaultConfig())

			result := eng.Categorize(context.Background(), model.CategorizationRequest{
				Description: "ZZZ MYSTERY",
				Amount:      tt.amount,
				Currency:    "ARS",
				Type:        tt.txType,
			})

			assert.Equal(t, tt.expectedCategory, result.Category)
			assert.InDelta(t, model.FallbackConfidence, result.Confidence, 1e-9)
			assert.Equal(t, []string{model.ReasonFallbackHeuristic}, result.Reasons)
			assert.Equal(t, model.SourceFallback, result.Source)
			assert.NotEmpty(t, result.Fingerprint)
		})
	}
}

func TestCategorizeFingerprintInvariantToDescription(t *testing.T) {
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), nil, DefaultConfig())
	date := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	base := model.CategorizationRequest{
		Merchant:      "COTO",
		Amount:        -4300,
		Currency:      "ARS",
		Date:          date,
		AccountSuffix: "1234",
	}

	a := base
	a.Description = "COTO POS 00123"
	b := base
	b.Description = "SUPERMERCADO COTO COMPRA"

	resultA := eng.Categorize(context.Background(), a)
	resultB := eng.Categorize(context.Background(), b)

	assert.Equal(t, resultA.Fingerprint, resultB.Fingerprint,
		"rewording the description never changes the fingerprint")
}

func TestCategorizeMerchantlessFingerprintDerivesFromDescription(t *testing.T) {
	// Without a merchant the normalized description stands in, so two
	// distinct merchantless transactions keep distinct fingerprints
	// instead of wrongly coalescing under one oracle call.
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), nil, DefaultConfig())

	a := eng.Categorize(context.Background(), model.CategorizationRequest{
		Description: "ZZZ ALPHA VENDOR", Amount: -10, Currency: "ARS",
	})
	b := eng.Categorize(context.Background(), model.CategorizationRequest{
		Description: "ZZZ BETA VENDOR", Amount: -10, Currency: "ARS",
	})

	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestCategorizeWeakRuleNotTrustedOverFallback(t *testing.T) {
	// No oracle: a 0.3-strength rule hit degrades to the honest default
	// instead of being accepted with false confidence.
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), nil, DefaultConfig())

	result := eng.Categorize(context.Background(), model.CategorizationRequest{
		Description: "KIOSCO 25 DE MAYO",
		Amount:      -500,
		Currency:    "ARS",
	})

	assert.Equal(t, model.DefaultExpenseCategory, result.Category)
	assert.InDelta(t, model.FallbackConfidence, result.Confidence, 1e-9)
	assert.Equal(t, model.SourceFallback, result.Source)
}

func TestCategorizeOracleFailureDegradesToFallback(t *testing.T) {
	gateway := &MockGateway{Err: errors.New("oracle unavailable")}
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	result := eng.Categorize(context.Background(), model.CategorizationRequest{
		Description: "ZZZ MYSTERY",
		Amount:      -4300,
		Currency:    "ARS",
	})

	assert.Equal(t, 1, gateway.Calls)
	assert.Equal(t, model.DefaultExpenseCategory, result.Category)
	assert.Equal(t, model.SourceFallback, result.Source)
}

func TestCategorizeCacheWriteFailureNeverSurfaces(t *testing.T) {
	mockCache := NewMockCache()
	mockCache.FailWrites = true
	mockCache.setErr = errors.New("disk full")
	eng := New(mockCache, &MockLearned{}, cotoRules(t), nil, DefaultConfig())

	result := eng.Categorize(context.Background(), cotoRequest())

	assert.Equal(t, "Supermarket", result.Category, "a failed write-back degrades silently")
	assert.Equal(t, 1, mockCache.SetCalls)
}

func TestCategorizeEveryPathWritesCache(t *testing.T) {
	tests := []struct {
		gateway OracleGateway
		learned *MockLearned
		name    string
		req     model.CategorizationRequest
	}{
		{
			name:    "rule path",
			learned: &MockLearned{},
			req:     cotoRequest(),
		},
		{
			name: "learned path",
			learned: &MockLearned{
				HasPattern: true,
				Pattern:    model.LearnedPattern{Category: "Household", Confidence: 0.9, Votes: 3},
			},
			req: cotoRequest(),
		},
		{
			name:    "ai path",
			learned: &MockLearned{},
			gateway: &MockGateway{Suggestion: oracle.Suggestion{Category: "Groceries", Confidence: 0.8}},
			req:     model.CategorizationRequest{Description: "ZZZ", Amount: -10, Currency: "ARS"},
		},
		{
			name:    "fallback path",
			learned: &MockLearned{},
			req:     model.CategorizationRequest{Description: "ZZZ", Amount: -10, Currency: "ARS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCache := NewMockCache()
			eng := New(mockCache, tt.learned, cotoRules(t), tt.gateway, DefaultConfig())

			result := eng.Categorize(context.Background(), tt.req)

			assert.Equal(t, 1, mockCache.Len(), "every decision path writes back")
			assert.NotEmpty(t, result.Fingerprint, "fingerprint is always populated")
		})
	}
}

func TestCategorizeConcurrentDuplicatesCoalesceOracleCalls(t *testing.T) {
	// Ten concurrent categorize calls for the same transaction, no cache
	// entry, no rule match: exactly one oracle invocation.
	client := &oracle.MockClient{
		Script: []oracle.MockResponse{
			{Suggestion: oracle.Suggestion{Category: "Groceries", Confidence: 0.8}},
		},
		Block: make(chan struct{}),
	}
	gateway := oracle.NewGateway(client, time.Second)
	eng := New(NewMockCache(), &MockLearned{}, cotoRules(t), gateway, DefaultConfig())

	req := model.CategorizationRequest{
		Description: "ZZZ MYSTERY",
		Amount:      -4300,
		Currency:    "ARS",
	}

	const callers = 10
	results := make([]model.CategorizationResult, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = eng.Categorize(context.Background(), req)
		}(i)
	}

	time.Sleep(200 * time.Millisecond)
	close(client.Block)
	wg.Wait()

	assert.Equal(t, 1, client.Calls(), "duplicate in-flight requests coalesce to one oracle call")
	for _, result := range results {
		assert.Equal(t, "Groceries", result.Category)
	}
}
