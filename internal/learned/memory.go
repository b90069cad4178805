package learned

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/pigeonhole/internal/identity"
	"github.com/Veraticus/pigeonhole/internal/model"
)

// DefaultRefreshInterval is the minimum time between table rebuilds.
const DefaultRefreshInterval = 5 * time.Minute

const (
	merchantKeyPrefix = "merchant:"
	descKeyPrefix     = "desc:"

	// consensusThreshold is the minimum share of votes the winning
	// category must hold for a key to be promoted.
	consensusThreshold = 0.70
)

var descWhitespace = regexp.MustCompile(`\s+`)

// Memory is the learned-pattern table. It is rebuilt wholesale from the
// feedback log and swapped in atomically; concurrent readers always see
// either the previous complete table or the new one.
type Memory struct {
	lastBuild       time.Time
	now             func() time.Time
	log             *FeedbackLog
	patterns        map[string]model.LearnedPattern
	refreshInterval time.Duration
	mu              sync.RWMutex
	rebuildMu       sync.Mutex
}

// NewMemory creates an empty learned memory fed by log.
func NewMemory(log *FeedbackLog) *Memory {
	return &Memory{
		log:             log,
		patterns:        make(map[string]model.LearnedPattern),
		refreshInterval: DefaultRefreshInterval,
		now:             time.Now,
	}
}

// Refresh rebuilds the table from the feedback log. The rebuild is skipped
// when the last one was under the refresh interval ago and the table is
// non-empty, unless force is set.
func (m *Memory) Refresh(ctx context.Context, force bool) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	fresh := m.now().Sub(m.lastBuild) < m.refreshInterval && len(m.patterns) > 0
	m.mu.RUnlock()
	if fresh && !force {
		return nil
	}

	votes := make(map[string]map[string]int)
	records := 0

	err := m.log.Scan(func(record model.FeedbackRecord) {
		if strings.TrimSpace(record.Category) == "" {
			return
		}
		records++

		for _, key := range identityKeys(record) {
			if votes[key] == nil {
				votes[key] = make(map[string]int)
			}
			votes[key][record.Category]++
		}
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild learned memory: %w", err)
	}

	table := make(map[string]model.LearnedPattern, len(votes))
	for key, tally := range votes {
		if pattern, ok := promote(tally); ok {
			table[key] = pattern
		}
	}

	m.mu.Lock()
	m.patterns = table
	m.lastBuild = m.now()
	m.mu.Unlock()

	slog.Debug("Rebuilt learned memory",
		"feedback_records", records,
		"keys", len(votes),
		"promoted", len(table))

	return nil
}

// Consult looks up a learned pattern for the given merchant and
// description. The merchant key is the stronger signal and is checked
// first.
func (m *Memory) Consult(merchant, description string) (model.LearnedPattern, bool) {
	m.mu.RLock()
	table := m.patterns
	m.mu.RUnlock()

	if normalized := identity.NormalizeMerchant(merchant); normalized != "" {
		if pattern, ok := table[merchantKeyPrefix+strings.ToLower(normalized)]; ok {
			return pattern, true
		}
	}

	if normalized := normalizeDescription(description); normalized != "" {
		if pattern, ok := table[descKeyPrefix+normalized]; ok {
			return pattern, true
		}
	}

	return model.LearnedPattern{}, false
}

// Patterns returns a copy of the current table for inspection.
func (m *Memory) Patterns() map[string]model.LearnedPattern {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]model.LearnedPattern, len(m.patterns))
	for k, v := range m.patterns {
		out[k] = v
	}
	return out
}

// promote applies the consensus rule to one key's vote tally.
func promote(tally map[string]int) (model.LearnedPattern, bool) {
	total := 0
	winner := ""
	winnerVotes := 0
	for category, n := range tally {
		total += n
		if n > winnerVotes || (n == winnerVotes && category < winner) {
			winner = category
			winnerVotes = n
		}
	}
	if total == 0 {
		return model.LearnedPattern{}, false
	}

	share := float64(winnerVotes) / float64(total)
	if share < consensusThreshold {
		return model.LearnedPattern{}, false
	}

	volume := total
	if volume > 5 {
		volume = 5
	}
	confidence := 0.5 + 0.4*share + 0.02*float64(volume)
	if confidence > 0.95 {
		confidence = 0.95
	}

	return model.LearnedPattern{
		Category:   winner,
		Confidence: confidence,
		Votes:      total,
	}, true
}

// identityKeys derives up to two lookup keys from a feedback record.
func identityKeys(record model.FeedbackRecord) []string {
	keys := make([]string, 0, 2)

	if normalized := identity.NormalizeMerchant(record.Merchant); normalized != "" {
		keys = append(keys, merchantKeyPrefix+strings.ToLower(normalized))
	}
	if normalized := normalizeDescription(record.Description); normalized != "" {
		keys = append(keys, descKeyPrefix+normalized)
	}

	return keys
}

func normalizeDescription(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	return descWhitespace.ReplaceAllString(s, " ")
}
