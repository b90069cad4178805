package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/pigeonhole/internal/common"
	"github.com/Veraticus/pigeonhole/internal/model"
)

func fastRetryGateway(client Client) *Gateway {
	g := NewGateway(client, time.Second)
	g.retryOpts.InitialDelay = time.Millisecond
	g.retryOpts.MaxDelay = 5 * time.Millisecond
	return g
}

func sampleRequest() model.CategorizationRequest {
	return model.CategorizationRequest{
		Description: "SUPERMERCADO COTO",
		Amount:      -4300,
		Currency:    "ARS",
	}
}

func TestGatewayRetriesTransientErrors(t *testing.T) {
	rateLimited := &common.RetryableError{
		Err:       fmt.Errorf("%w: 429", common.ErrRateLimit),
		Retryable: true,
	}
	client := &MockClient{Script: []MockResponse{
		{Err: rateLimited},
		{Err: rateLimited},
		{Suggestion: Suggestion{Category: "Supermarket", Confidence: 0.85, Reasoning: "grocery chain"}},
	}}

	suggestion, _, err := fastRetryGateway(client).Classify(context.Background(), "fp-1", sampleRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Supermarket", suggestion.Category)
	assert.Equal(t, 3, client.Calls(), "two 429s then success means exactly three attempts")
}

func TestGatewayDoesNotRetryPermanentErrors(t *testing.T) {
	client := &MockClient{Script: []MockResponse{
		{Err: &common.RetryableError{Err: errors.New("auth failure"), Retryable: false}},
	}}

	_, _, err := fastRetryGateway(client).Classify(context.Background(), "fp-2", sampleRequest(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, client.Calls(), "permanent errors fail after exactly one attempt")
}

func TestGatewayExhaustsRetries(t *testing.T) {
	client := &MockClient{Script: []MockResponse{
		{Err: &common.RetryableError{Err: errors.New("connection reset"), Retryable: true}},
	}}

	_, _, err := fastRetryGateway(client).Classify(context.Background(), "fp-3", sampleRequest(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, 3, client.Calls())
}

func TestGatewayCoalescesConcurrentCallers(t *testing.T) {
	client := &MockClient{
		Script: []MockResponse{
			{Suggestion: Suggestion{Category: "Supermarket", Confidence: 0.8}},
		},
		Block: make(chan struct{}),
	}
	gateway := fastRetryGateway(client)

	const callers = 10
	results := make([]Suggestion, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], _, errs[idx] = gateway.Classify(context.Background(), "fp-shared", sampleRequest(), nil)
		}(i)
	}

	// Let every caller reach the in-flight call before releasing it.
	time.Sleep(200 * time.Millisecond)
	close(client.Block)
	wg.Wait()

	assert.Equal(t, 1, client.Calls(), "concurrent callers with one fingerprint coalesce to one upstream call")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Supermarket", results[i].Category)
	}
}

func TestGatewaySharesFailureAcrossCoalescedCallers(t *testing.T) {
	client := &MockClient{
		Script: []MockResponse{
			{Err: &common.RetryableError{Err: errors.New("bad request"), Retryable: false}},
		},
		Block: make(chan struct{}),
	}
	gateway := fastRetryGateway(client)

	const callers = 5
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, _, errs[idx] = gateway.Classify(context.Background(), "fp-fail", sampleRequest(), nil)
		}(i)
	}

	time.Sleep(200 * time.Millisecond)
	close(client.Block)
	wg.Wait()

	assert.Equal(t, 1, client.Calls())
	for i := 0; i < callers; i++ {
		assert.Error(t, errs[i], "all coalesced callers observe the shared failure")
	}
}

func TestGatewayHandleRemovedAfterSettle(t *testing.T) {
	client := &MockClient{Script: []MockResponse{
		{Err: &common.RetryableError{Err: errors.New("bad request"), Retryable: false}},
		{Suggestion: Suggestion{Category: "Supermarket", Confidence: 0.8}},
	}}
	gateway := fastRetryGateway(client)

	_, _, err := gateway.Classify(context.Background(), "fp-4", sampleRequest(), nil)
	require.Error(t, err)

	// The dead entry must not wedge later callers for the same key.
	suggestion, _, err := gateway.Classify(context.Background(), "fp-4", sampleRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Supermarket", suggestion.Category)
	assert.Equal(t, 2, client.Calls())
}

func TestGatewayTimeoutBoundsCall(t *testing.T) {
	client := &MockClient{
		Script: []MockResponse{
			{Suggestion: Suggestion{Category: "Supermarket"}},
		},
		Block: make(chan struct{}), // never released
	}
	gateway := NewGateway(client, 20*time.Millisecond)
	gateway.retryOpts.MaxAttempts = 1

	start := time.Now()
	_, _, err := gateway.Classify(context.Background(), "fp-5", sampleRequest(), nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "timeout must bound the call")
}
