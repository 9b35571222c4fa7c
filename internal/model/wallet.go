package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a wallet movement.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Wallet holds the internal currency of one user.
// Balance always equals the starting balance plus credits minus debits and is never negative.
type Wallet struct {
	UserID          string          `json:"user_id"`
	Balance         decimal.Decimal `json:"balance"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	Transactions    []Transaction   `json:"transactions"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Transaction is one entry of a wallet history.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DocumentID  string          `json:"document_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
