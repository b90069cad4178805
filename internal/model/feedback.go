package model

import "time"

// FeedbackRecord is one user correction, appended to the feedback log.
// Only Category is required; the identity fields are used to derive
// learned-pattern keys when present.
type FeedbackRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	ID          string    `json:"id,omitempty"`
	Category    string    `json:"category"`
	Reason      string    `json:"reason,omitempty"`
	Description string    `json:"description,omitempty"`
	Merchant    string    `json:"merchant,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
}

// LearnedPattern is a promoted consensus entry in the learned-memory table,
// keyed by "merchant:<normalized>" or "desc:<normalized>".
type LearnedPattern struct {
	Category   string
	Confidence float64
	Votes      int
}
