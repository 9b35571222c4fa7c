package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"docspot/internal/model"
)

// WalletRepository is the wallet ledger. Transfer is the only balance mutation.
type WalletRepository interface {
	// CreateWallet opens a wallet for userID. Returns ErrAlreadyExists on a second call.
	CreateWallet(ctx context.Context, userID string, startingBalance decimal.Decimal) (*model.Wallet, error)

	// FindByUserID returns the wallet with its transaction history, or ErrNotFound.
	FindByUserID(ctx context.Context, userID string) (*model.Wallet, error)

	// Transfer atomically debits From and credits To and appends both history entries.
	// Either everything is applied or nothing is.
	Transfer(ctx context.Context, in TransferInput) (*TransferResult, error)
}

// TransferInput describes a wallet-to-wallet movement tied to a document.
type TransferInput struct {
	From              string
	To                string
	Amount            decimal.Decimal
	DebitDescription  string
	CreditDescription string
	DocumentID        string
}

// Validate rejects transfers that can never be applied.
func (in TransferInput) Validate() error {
	if in.From == "" || in.To == "" {
		return ErrInvalidTransfer
	}
	if in.From == in.To {
		return ErrInvalidTransfer
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidTransfer
	}
	return nil
}

// TransferResult holds the balances right after the transfer committed.
type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}
