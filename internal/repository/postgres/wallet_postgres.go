package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"docspot/internal/database"
	"docspot/internal/model"
	"docspot/internal/repository"
)

// WalletPostgres is a PostgreSQL implementation of repository.WalletRepository.
type WalletPostgres struct {
	db *sql.DB
}

// NewWalletPostgres creates a new WalletPostgres repository.
func NewWalletPostgres(db *sql.DB) *WalletPostgres {
	return &WalletPostgres{db: db}
}

var _ repository.WalletRepository = (*WalletPostgres)(nil)

// CreateWallet inserts the wallet row; a conflicting user_id yields ErrAlreadyExists.
func (r *WalletPostgres) CreateWallet(ctx context.Context, userID string, startingBalance decimal.Decimal) (*model.Wallet, error) {
	const q = `
		INSERT INTO wallets (user_id, balance, starting_balance, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING user_id, balance, starting_balance, created_at
	`
	var w model.Wallet
	err := r.db.QueryRowContext(ctx, q, userID, startingBalance, startingBalance, time.Now().UTC()).
		Scan(&w.UserID, &w.Balance, &w.StartingBalance, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, err
	}
	w.Transactions = []model.Transaction{}
	return &w, nil
}

// FindByUserID returns the wallet and its full history in insertion order.
func (r *WalletPostgres) FindByUserID(ctx context.Context, userID string) (*model.Wallet, error) {
	const q = `
		SELECT user_id, balance, starting_balance, created_at
		FROM wallets
		WHERE user_id = $1
	`
	var w model.Wallet
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&w.UserID, &w.Balance, &w.StartingBalance, &w.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	const qTx = `
		SELECT id, type, amount, description, COALESCE(document_id, ''), created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, qTx, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	w.Transactions = make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Description, &t.DocumentID, &t.CreatedAt); err != nil {
			return nil, err
		}
		w.Transactions = append(w.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Transfer moves money between two wallets inside one transaction.
// Both rows are locked in user_id order and the debit is guarded by balance >= amount.
func (r *WalletPostgres) Transfer(ctx context.Context, in repository.TransferInput) (*repository.TransferResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	res := &repository.TransferResult{}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const qLock = `
			SELECT user_id, balance
			FROM wallets
			WHERE user_id IN ($1, $2)
			ORDER BY user_id
			FOR UPDATE
		`
		rows, err := tx.QueryContext(ctx, qLock, in.From, in.To)
		if err != nil {
			return err
		}
		balances := make(map[string]decimal.Decimal, 2)
		for rows.Next() {
			var (
				id  string
				bal decimal.Decimal
			)
			if err := rows.Scan(&id, &bal); err != nil {
				rows.Close()
				return err
			}
			balances[id] = bal
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		fromBal, okFrom := balances[in.From]
		_, okTo := balances[in.To]
		if !okFrom || !okTo {
			return repository.ErrNotFound
		}
		if fromBal.LessThan(in.Amount) {
			return repository.ErrInsufficientBalance
		}

		const qDebit = `
			UPDATE wallets SET balance = balance - $2
			WHERE user_id = $1 AND balance >= $2
			RETURNING balance
		`
		if err := tx.QueryRowContext(ctx, qDebit, in.From, in.Amount).Scan(&res.FromBalance); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrInsufficientBalance
			}
			return fmt.Errorf("debit: %w", err)
		}

		const qCredit = `
			UPDATE wallets SET balance = balance + $2
			WHERE user_id = $1
			RETURNING balance
		`
		if err := tx.QueryRowContext(ctx, qCredit, in.To, in.Amount).Scan(&res.ToBalance); err != nil {
			return fmt.Errorf("credit: %w", err)
		}

		const qEntry = `
			INSERT INTO wallet_transactions (id, user_id, type, amount, description, document_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		now := time.Now().UTC()
		docID := sql.NullString{String: in.DocumentID, Valid: in.DocumentID != ""}
		if _, err := tx.ExecContext(ctx, qEntry, uuid.NewString(), in.From, model.TransactionDebit, in.Amount, in.DebitDescription, docID, now); err != nil {
			return fmt.Errorf("append debit entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qEntry, uuid.NewString(), in.To, model.TransactionCredit, in.Amount, in.CreditDescription, docID, now); err != nil {
			return fmt.Errorf("append credit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
