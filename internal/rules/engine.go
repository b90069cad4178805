package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Pattern is one classification rule. Higher-priority patterns are checked
// first; Strength is the base confidence when the pattern matches.
type Pattern struct {
	Name     string
	Category string
	Regex    string
	Priority int
	Strength float64
}

type compiledPattern struct {
	regex *regexp.Regexp
	Pattern
}

// PatternEngine implements Classifier with a priority-ordered regex set.
type PatternEngine struct {
	patterns []compiledPattern
	mu       sync.RWMutex
}

// NewPatternEngine compiles the given patterns. Patterns are matched
// case-insensitively.
func NewPatternEngine(patterns []Pattern) (*PatternEngine, error) {
	compiled, err := compile(patterns)
	if err != nil {
		return nil, err
	}

	return &PatternEngine{patterns: compiled}, nil
}

func compile(patterns []Pattern) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))

	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, compiledPattern{Pattern: p, regex: regex})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return compiled, nil
}

// Classify matches the text bag against the pattern set in priority order.
func (e *PatternEngine) Classify(bag string) Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	searchText := strings.ToLower(bag)

	for _, pattern := range e.patterns {
		if !pattern.regex.MatchString(searchText) {
			continue
		}

		strength := pattern.Strength

		// More specific patterns earn a small boost.
		if strings.Contains(searchText, strings.ToLower(pattern.Name)) {
			strength = minFloat(strength+0.1, 1.0)
		}
		if len(pattern.Regex) > 40 {
			strength = minFloat(strength+0.05, 1.0)
		}

		return Match{
			Hit:      true,
			Category: pattern.Category,
			Strength: strength,
			Reason:   fmt.Sprintf("rule:%s", pattern.Name),
		}
	}

	return Match{}
}

// UpdatePatterns replaces the pattern set.
func (e *PatternEngine) UpdatePatterns(patterns []Pattern) error {
	compiled, err := compile(patterns)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.patterns = compiled
	e.mu.Unlock()

	return nil
}

// PatternCount returns the number of loaded patterns.
func (e *PatternEngine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
