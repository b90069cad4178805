// Package model defines the core types shared across the categorization engine.
package model

import "time"

// TransactionType hints at the direction of a transaction when the caller
// knows it. The amount sign is authoritative when the hint is absent.
type TransactionType string

const (
	// TypeExpense marks an outgoing transaction.
	TypeExpense TransactionType = "expense"
	// TypeIncome marks an incoming transaction.
	TypeIncome TransactionType = "income"
	// TypeTransfer marks a movement between the user's own accounts.
	TypeTransfer TransactionType = "transfer"
)

// CategorizationRequest describes one transaction to categorize.
// Amount is signed: negative for expenses, positive for income.
type CategorizationRequest struct {
	Date          time.Time
	Description   string
	Merchant      string
	Currency      string
	AccountSuffix string
	MessageID     string
	Type          TransactionType
	Context       *RequestContext
	Amount        float64
	UseAI         bool
}

// RequestContext carries optional surrounding signal for the oracle prompt.
type RequestContext struct {
	UserHints          []string
	RecentTransactions []string
}
