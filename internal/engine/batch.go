package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/pigeonhole/internal/identity"
	"github.com/Veraticus/pigeonhole/internal/model"
)

// BatchOptions tunes CategorizeBatch. Zero values take the engine's
// configured defaults.
type BatchOptions struct {
	// Progress, when non-nil, is called after each item settles with the
	// number of completed items and the batch total.
	Progress         func(completed, total int)
	MaxConcurrency   int
	InterWindowDelay time.Duration
	UseAI            bool
}

// CategorizeBatch categorizes items in fixed-size concurrent windows with a
// short delay between windows to smooth oracle load. One item's failure
// never aborts the batch; Categorize itself degrades to the direction
// fallback, and a panicking collaborator is contained to its item.
func (e *Engine) CategorizeBatch(ctx context.Context, items []model.CategorizationRequest, opts BatchOptions) []model.CategorizationResult {
	window := opts.MaxConcurrency
	if window <= 0 {
		window = e.batchConc
	}
	delay := opts.InterWindowDelay
	if delay <= 0 {
		delay = e.batchDelay
	}

	results := make([]model.CategorizationResult, len(items))

	var progressMu sync.Mutex
	completed := 0
	reportProgress := func() {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		completed++
		done := completed
		progressMu.Unlock()
		opts.Progress(done, len(items))
	}

	for start := 0; start < len(items); start += window {
		end := start + window
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = e.categorizeItem(ctx, items[idx], opts.UseAI)
				reportProgress()
			}(i)
		}
		wg.Wait()

		if end < len(items) {
			select {
			case <-ctx.Done():
				// Remaining items get the honest default rather than
				// an aborted batch.
				for i := end; i < len(items); i++ {
					results[i] = e.fallbackResult(items[i])
					reportProgress()
				}
				return results
			case <-time.After(delay):
			}
		}
	}

	return results
}

func (e *Engine) categorizeItem(ctx context.Context, item model.CategorizationRequest, useAI bool) (result model.CategorizationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Categorization panicked, degrading to fallback",
				"description", item.Description,
				"panic", r)
			result = e.fallbackResult(item)
		}
	}()

	if useAI {
		item.UseAI = true
	}

	return e.Categorize(ctx, item)
}

func (e *Engine) fallbackResult(item model.CategorizationRequest) model.CategorizationResult {
	merchant := identity.NormalizeMerchant(item.Merchant)
	if merchant == "" {
		merchant = identity.NormalizeMerchant(item.Description)
	}
	stage := directionFallback(item)

	return model.CategorizationResult{
		Category:    stage.Category,
		Confidence:  stage.Confidence,
		Reasons:     []string{stage.Reason},
		Merchant:    merchant,
		Fingerprint: identity.Fingerprint(item.Amount, item.Date, merchant, item.AccountSuffix, item.MessageID),
		Source:      model.SourceFallback,
	}
}
