package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/pigeonhole/internal/model"
	"github.com/Veraticus/pigeonhole/internal/oracle"
	"github.com/Veraticus/pigeonhole/internal/rules"
)

// MockCache is an in-memory ResultCache for tests.
type MockCache struct {
	entries    map[string]model.CategorizationResult
	setErr     error
	GetCalls   int
	SetCalls   int
	FailWrites bool
	mu         sync.Mutex
}

// NewMockCache creates an empty mock cache.
func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]model.CategorizationResult)}
}

// Get returns a stored result.
func (m *MockCache) Get(_ context.Context, key string) (model.CategorizationResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	result, ok := m.entries[key]
	return result, ok
}

// Set stores a result, or fails when FailWrites is set.
func (m *MockCache) Set(_ context.Context, key string, result model.CategorizationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	if m.FailWrites {
		return m.setErr
	}
	m.entries[key] = result
	return nil
}

// Len reports the number of stored entries.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MockLearned is a fixed-table LearnedMemory for tests.
type MockLearned struct {
	Pattern      model.LearnedPattern
	HasPattern   bool
	RefreshCalls int
	mu           sync.Mutex
}

// Refresh records the call and succeeds.
func (m *MockLearned) Refresh(_ context.Context, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	return nil
}

// Consult returns the configured pattern, if any.
func (m *MockLearned) Consult(_, _ string) (model.LearnedPattern, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pattern, m.HasPattern
}

// MockRules is a scriptable rules.Classifier for tests.
type MockRules struct {
	Result rules.Match
}

// Classify returns the scripted match regardless of input.
func (m *MockRules) Classify(_ string) rules.Match {
	return m.Result
}

// MockGateway is a scriptable OracleGateway counting invocations.
type MockGateway struct {
	Err        error
	Suggestion oracle.Suggestion
	Calls      int
	mu         sync.Mutex
}

// Classify returns the scripted suggestion or error.
func (m *MockGateway) Classify(_ context.Context, _ string, _ model.CategorizationRequest, _ []string) (oracle.Suggestion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return oracle.Suggestion{}, false, m.Err
	}
	return m.Suggestion, false, nil
}
