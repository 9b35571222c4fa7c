package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"docspot/internal/model"
	"docspot/internal/repository"
)

// AccessResult is the outcome of a granted access.
// Committed is true once the purchase transfer has been applied; Warnings lists the
// post-commit steps that failed. Every warning matches ErrLoggingFailure.
type AccessResult struct {
	FileURL   string
	UsedKey   *string
	Committed bool
	Warnings  []error
}

// Degraded reports whether access was granted with at least one failed logging step.
func (r *AccessResult) Degraded() bool { return len(r.Warnings) > 0 }

// DownloadedDocument is a download row joined with the public view of its document.
// Document is nil when the document no longer resolves.
type DownloadedDocument struct {
	model.DownloadedDoc
	Document *model.Document `json:"document,omitempty"`
}

// AccessService grants access to documents and exposes the access log of a user.
type AccessService interface {
	// BuyDocument moves the price from the buyer to the owner and grants the file URL.
	// The transfer is the commit point: failures before it leave no side effect, failures
	// after it are reported as warnings and never undo the transfer.
	BuyDocument(ctx context.Context, buyerID, documentID string) (*AccessResult, error)

	// DownloadFree grants the file URL of a free document.
	DownloadFree(ctx context.Context, userID, documentID string) (*AccessResult, error)

	// Upvote adds one upvote and returns the new count.
	Upvote(ctx context.Context, userID, documentID string) (int64, error)

	// Downloads lists the user's download rows, newest first.
	Downloads(ctx context.Context, userID string) ([]DownloadedDocument, error)

	// Activities lists at most limit feed events of the user, newest first.
	Activities(ctx context.Context, userID string, limit int) ([]model.Activity, error)
}

type accessService struct {
	base
}

// NewAccessService constructs a new AccessService.
func NewAccessService(d Deps) AccessService {
	return &accessService{base: newBase(d)}
}

func (s *accessService) BuyDocument(ctx context.Context, buyerID, documentID string) (*AccessResult, error) {
	ctx, span := s.startSpan(ctx, "access.BuyDocument",
		attribute.String("user.id", buyerID),
		attribute.String("document.id", documentID),
	)
	res, err := s.buy(ctx, buyerID, documentID)
	s.Metrics.observe(KindPurchase, outcome(res, err))
	if err != nil {
		s.logRejected("purchase_failed", buyerID, documentID, err)
	}
	endSpan(span, err)
	return res, err
}

func (s *accessService) buy(ctx context.Context, buyerID, documentID string) (*AccessResult, error) {
	doc, err := s.validatePurchase(ctx, buyerID, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.transfer(ctx, buyerID, doc); err != nil {
		return nil, err
	}
	res := &AccessResult{FileURL: doc.FileURL, Committed: true}

	// Money moved: the remaining steps must run even if the caller went away.
	s.logPurchase(context.WithoutCancel(ctx), buyerID, doc, res)

	s.Logger.Info("purchase_committed",
		zap.String("user_id", buyerID),
		zap.String("document_id", doc.ID),
		zap.String("price", doc.Price.StringFixed(2)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// validatePurchase checks every precondition of a purchase without mutating anything.
func (s *accessService) validatePurchase(ctx context.Context, buyerID, documentID string) (doc *model.Document, err error) {
	ctx, span := s.startSpan(ctx, "access.BuyDocument.validate")
	defer func() { endSpan(span, err) }()

	if buyerID == "" {
		return nil, ErrUnauthorized
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}

	doc, err = s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsPaid() {
		return nil, fmt.Errorf("%w: document %s is not a paid document", ErrInvalidRequest, doc.ID)
	}
	if doc.OwnerID == buyerID {
		return nil, fmt.Errorf("%w: owners cannot buy their own document", ErrInvalidRequest)
	}
	if doc.FileURL == "" {
		return nil, fmt.Errorf("document %s: %w", doc.ID, ErrMissingAsset)
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	buyer, err := s.Wallets.FindByUserID(sctx, buyerID)
	if err != nil {
		return nil, translate("load buyer wallet", err)
	}
	if _, err := s.Wallets.FindByUserID(sctx, doc.OwnerID); err != nil {
		return nil, translate("load seller wallet", err)
	}
	if buyer.Balance.LessThan(doc.Price) {
		return nil, fmt.Errorf("balance %s below price %s: %w",
			buyer.Balance.StringFixed(2), doc.Price.StringFixed(2), ErrInsufficientBalance)
	}
	return doc, nil
}

func (s *accessService) transfer(ctx context.Context, buyerID string, doc *model.Document) (err error) {
	ctx, span := s.startSpan(ctx, "access.BuyDocument.transfer",
		attribute.String("amount", doc.Price.StringFixed(2)),
	)
	defer func() { endSpan(span, err) }()

	// created_at is stored with microsecond precision.
	started := time.Now().UTC().Add(-time.Millisecond)
	sctx, cancel := s.storeCtx(ctx)
	_, err = s.Wallets.Transfer(sctx, repository.TransferInput{
		From:              buyerID,
		To:                doc.OwnerID,
		Amount:            doc.Price,
		DebitDescription:  repository.PurchaseDescriptionPrefix + doc.Title,
		CreditDescription: "Sale: " + doc.Title,
		DocumentID:        doc.ID,
	})
	cancel()
	if errors.Is(err, context.DeadlineExceeded) {
		return s.resolveTransfer(ctx, buyerID, doc.ID, started)
	}
	return translate("transfer", err)
}

// resolveTransfer decides the outcome of a transfer whose reply was lost to the deadline.
// It returns nil when the buyer's history shows the purchase debit, meaning the transfer committed.
func (s *accessService) resolveTransfer(ctx context.Context, buyerID, documentID string, since time.Time) error {
	rctx, cancel := s.storeCtx(context.WithoutCancel(ctx))
	defer cancel()

	w, err := s.Wallets.FindByUserID(rctx, buyerID)
	if err != nil {
		s.Logger.Error("transfer_outcome_unknown",
			zap.String("user_id", buyerID),
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return &TimeoutError{Op: "transfer"}
	}
	if hasPurchaseDebit(w, documentID, since) {
		s.Logger.Warn("transfer_committed_after_deadline",
			zap.String("user_id", buyerID),
			zap.String("document_id", documentID),
		)
		return nil
	}
	return &TimeoutError{Op: "transfer", Committed: committedState(false)}
}

func hasPurchaseDebit(w *model.Wallet, documentID string, since time.Time) bool {
	for _, t := range w.Transactions {
		if t.Type == model.TransactionDebit &&
			t.DocumentID == documentID &&
			strings.HasPrefix(t.Description, repository.PurchaseDescriptionPrefix) &&
			!t.CreatedAt.Before(since) {
			return true
		}
	}
	return false
}

// logPurchase runs the post-commit steps. Failures are appended to res.Warnings.
func (s *accessService) logPurchase(ctx context.Context, buyerID string, doc *model.Document, res *AccessResult) {
	ctx, span := s.startSpan(ctx, "access.BuyDocument.log")
	defer span.End()

	sctx, cancel := s.storeCtx(ctx)
	key, err := s.Documents.ClaimPasskey(sctx, doc.ID, buyerID)
	cancel()
	if err != nil {
		// An exhausted pool still grants access; the download row just carries no key.
		res.Warnings = append(res.Warnings, warning("claim passkey", err, res.Committed))
	} else {
		res.UsedKey = &key
	}

	s.logAccess(ctx, buyerID, doc.ID, res)

	for _, w := range res.Warnings {
		span.RecordError(w)
	}
}

// logAccess records the download row and the download activity.
func (s *accessService) logAccess(ctx context.Context, userID, documentID string, res *AccessResult) {
	sctx, cancel := s.storeCtx(ctx)
	_, err := s.AccessLog.RecordDownload(sctx, userID, documentID, res.UsedKey)
	cancel()
	if err != nil {
		res.Warnings = append(res.Warnings, warning("record download", err, res.Committed))
	}

	if err := s.recordActivity(ctx, userID, model.ActivityDownload, documentID); err != nil {
		res.Warnings = append(res.Warnings, warning("record activity", err, res.Committed))
	}

	for _, w := range res.Warnings {
		s.Logger.Warn("access_log_degraded",
			zap.String("user_id", userID),
			zap.String("document_id", documentID),
			zap.Error(w),
		)
	}
}

func (s *accessService) DownloadFree(ctx context.Context, userID, documentID string) (res *AccessResult, err error) {
	ctx, span := s.startSpan(ctx, "access.DownloadFree",
		attribute.String("user.id", userID),
		attribute.String("document.id", documentID),
	)
	defer func() {
		s.Metrics.observe(KindFreeDownload, outcome(res, err))
		if err != nil {
			s.logRejected("free_download_failed", userID, documentID, err)
		}
		endSpan(span, err)
	}()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}

	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsPaid() {
		return nil, fmt.Errorf("%w: document %s must be bought", ErrInvalidRequest, doc.ID)
	}
	if doc.FileURL == "" {
		return nil, fmt.Errorf("document %s: %w", doc.ID, ErrMissingAsset)
	}

	res = &AccessResult{FileURL: doc.FileURL}
	s.logAccess(ctx, userID, doc.ID, res)
	return res, nil
}

func (s *accessService) Upvote(ctx context.Context, userID, documentID string) (count int64, err error) {
	ctx, span := s.startSpan(ctx, "access.Upvote",
		attribute.String("user.id", userID),
		attribute.String("document.id", documentID),
	)
	defer func() {
		s.Metrics.observe(KindUpvote, outcome(nil, err))
		endSpan(span, err)
	}()

	if userID == "" {
		return 0, ErrUnauthorized
	}
	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}

	sctx, cancel := s.storeCtx(ctx)
	count, err = s.Documents.IncrementUpvote(sctx, documentID)
	cancel()
	if err != nil {
		return 0, translate("increment upvote", err)
	}

	if err := s.recordActivity(ctx, userID, model.ActivityUpvote, documentID); err != nil {
		s.Logger.Warn("access_log_degraded",
			zap.String("user_id", userID),
			zap.String("document_id", documentID),
			zap.Error(warning("record activity", err, false)),
		)
	}
	s.invalidateListings(ctx)
	return count, nil
}

func (s *accessService) Downloads(ctx context.Context, userID string) ([]DownloadedDocument, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	sctx, cancel := s.storeCtx(ctx)
	rows, err := s.AccessLog.ListDownloads(sctx, userID)
	cancel()
	if err != nil {
		return nil, translate("list downloads", err)
	}

	docs := make(map[string]*model.Document)
	out := make([]DownloadedDocument, 0, len(rows))
	for _, r := range rows {
		doc, seen := docs[r.DocumentID]
		if !seen {
			d, err := s.findDocument(ctx, r.DocumentID)
			switch {
			case err == nil:
				pub := d.Public()
				doc = &pub
			case !errors.Is(err, ErrNotFound):
				return nil, err
			}
			docs[r.DocumentID] = doc
		}
		out = append(out, DownloadedDocument{DownloadedDoc: r, Document: doc})
	}
	return out, nil
}

func (s *accessService) Activities(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, err := s.AccessLog.ListActivities(sctx, userID, limit)
	if err != nil {
		return nil, translate("list activities", err)
	}
	return items, nil
}

func (s *accessService) logRejected(msg, userID, documentID string, err error) {
	fields := []zap.Field{
		zap.String("user_id", userID),
		zap.String("document_id", documentID),
		zap.Error(err),
	}
	if isClientError(err) {
		s.Logger.Info(msg, fields...)
		return
	}
	s.Logger.Error(msg, fields...)
}

func isClientError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrUnauthorized, ErrInvalidRequest, ErrInsufficientBalance} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcome(res *AccessResult, err error) string {
	switch {
	case err == nil && res != nil && res.Degraded():
		return OutcomeDegraded
	case err == nil:
		return OutcomeGranted
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case isClientError(err):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
