package oracle

import (
	"context"
	"sync"

	"github.com/Veraticus/pigeonhole/internal/model"
)

// MockClient is a scriptable oracle client for tests. Responses are
// consumed in order; the last one repeats once the script is exhausted.
type MockClient struct {
	Script []MockResponse
	// Block, when non-nil, is received from before every call returns,
	// letting tests hold concurrent callers in flight.
	Block chan struct{}
	calls int
	mu    sync.Mutex
}

// MockResponse is one scripted oracle answer.
type MockResponse struct {
	Err        error
	Suggestion Suggestion
}

// Classify returns the next scripted response.
func (m *MockClient) Classify(ctx context.Context, _ model.CategorizationRequest, _ []string) (Suggestion, error) {
	m.mu.Lock()
	idx := m.calls
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	m.calls++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Suggestion{}, ctx.Err()
		}
	}

	if idx < 0 {
		return Suggestion{}, nil
	}

	response := m.Script[idx]
	return response.Suggestion, response.Err
}

// Calls reports how many times Classify ran.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
