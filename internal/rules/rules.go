// Package rules provides the deterministic pattern classifier consumed by
// the decision orchestrator.
package rules

// Match is the outcome of a rule classification. Hit is false when no
// pattern matched; the remaining fields are then zero.
type Match struct {
	Category string
	Reason   string
	Strength float64
	Hit      bool
}

// Classifier is a deterministic, synchronous pattern classifier. It takes a
// bag of transaction text (description, merchant, type hint concatenated)
// and performs no I/O.
type Classifier interface {
	Classify(bag string) Match
}
