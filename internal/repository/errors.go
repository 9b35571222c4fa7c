package repository

import "errors"

// Sentinel errors returned by every repository implementation.
var (
	ErrNotFound            = errors.New("repository: not found")
	ErrAlreadyExists       = errors.New("repository: already exists")
	ErrInsufficientBalance = errors.New("repository: insufficient balance")
	ErrInvalidTransfer     = errors.New("repository: invalid transfer")
	ErrPasskeysExhausted   = errors.New("repository: no unused passkey left")
)

// PurchaseDescriptionPrefix starts the description of every purchase debit.
// The audit query relies on it to tell purchases from other debits.
const PurchaseDescriptionPrefix = "Purchase: "
