package service

import (
	"context"

	"go.uber.org/zap"

	"docspot/internal/model"
)

// WalletService defines the use cases of the wallet ledger.
type WalletService interface {
	// Provision opens the wallet of a new user with the configured starting balance.
	Provision(ctx context.Context, userID string) (*model.Wallet, error)
	// Get returns the wallet with its transaction history.
	Get(ctx context.Context, userID string) (*model.Wallet, error)
}

type walletService struct {
	base
}

// NewWalletService constructs a new WalletService.
func NewWalletService(d Deps) WalletService {
	return &walletService{base: newBase(d)}
}

func (s *walletService) Provision(ctx context.Context, userID string) (*model.Wallet, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	w, err := s.Wallets.CreateWallet(sctx, userID, s.StartingBalance)
	if err != nil {
		return nil, translate("create wallet", err)
	}
	s.Logger.Info("wallet_provisioned",
		zap.String("user_id", userID),
		zap.String("balance", w.Balance.StringFixed(2)),
	)
	return w, nil
}

func (s *walletService) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	w, err := s.Wallets.FindByUserID(sctx, userID)
	if err != nil {
		return nil, translate("find wallet", err)
	}
	return w, nil
}
