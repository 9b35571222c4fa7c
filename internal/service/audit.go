package service

import (
	"context"

	"go.uber.org/zap"

	"docspot/internal/model"
)

// AuditService reconciles the wallet ledger against the access log.
type AuditService interface {
	// Reconcile returns every (user, document) pair with more purchase debits than download rows.
	// Such pairs are left behind by purchases whose post-commit logging failed.
	Reconcile(ctx context.Context) ([]model.PurchaseMismatch, error)
}

type auditService struct {
	base
}

// NewAuditService constructs a new AuditService.
func NewAuditService(d Deps) AuditService {
	return &auditService{base: newBase(d)}
}

func (s *auditService) Reconcile(ctx context.Context) ([]model.PurchaseMismatch, error) {
	ctx, span := s.startSpan(ctx, "audit.Reconcile")
	items, err := s.AccessLog.PurchaseMismatches(ctx)
	if err != nil {
		err = translate("purchase mismatches", err)
		endSpan(span, err)
		return nil, err
	}
	endSpan(span, nil)

	for _, m := range items {
		s.Logger.Warn("purchase_without_download",
			zap.String("user_id", m.UserID),
			zap.String("document_id", m.DocumentID),
			zap.Int("debits", m.Debits),
			zap.Int("downloads", m.Downloads),
		)
	}
	s.Logger.Info("audit_completed", zap.Int("mismatches", len(items)))
	return items, nil
}
