package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docspot/internal/cache"
	"docspot/internal/events"
	"docspot/internal/model"
	tracing "docspot/internal/otel"
	"docspot/internal/repository"
	"docspot/internal/storage"
)

const (
	defaultStoreTimeout    = 5 * time.Second
	defaultPasskeyPoolSize = 10
)

// Deps are the collaborators and settings shared by the services.
// Cache, Events, Metrics and Logger are optional.
type Deps struct {
	Documents repository.DocumentRepository
	Wallets   repository.WalletRepository
	AccessLog repository.AccessLogRepository
	Storage   storage.Storage
	Cache     cache.DocumentListCache
	Events    events.ActivityPublisher
	Metrics   *Metrics
	Logger    *zap.Logger

	StoreTimeout    time.Duration
	StartingBalance decimal.Decimal
	PasskeyPoolSize int
}

type base struct {
	Deps
	tracer trace.Tracer
}

func newBase(d Deps) base {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = defaultStoreTimeout
	}
	if d.PasskeyPoolSize <= 0 {
		d.PasskeyPoolSize = defaultPasskeyPoolSize
	}
	return base{Deps: d, tracer: otel.Tracer(tracing.TracerName)}
}

// storeCtx bounds a single store call.
func (b *base) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.StoreTimeout)
}

func (b *base) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (b *base) findDocument(ctx context.Context, id string) (*model.Document, error) {
	sctx, cancel := b.storeCtx(ctx)
	defer cancel()
	doc, err := b.Documents.FindByID(sctx, id)
	if err != nil {
		return nil, translate("find document", err)
	}
	return doc, nil
}

// recordActivity appends the event to the access log, then forwards it to the event stream.
// Only the access log write can fail the call; a publish failure is logged.
func (b *base) recordActivity(ctx context.Context, userID string, typ model.ActivityType, documentID string) error {
	sctx, cancel := b.storeCtx(ctx)
	defer cancel()
	a, err := b.AccessLog.RecordActivity(sctx, &model.Activity{
		UserID:      userID,
		Type:        typ,
		ContentRef:  documentID,
		ContentType: model.ContentTypeDocument,
	})
	if err != nil {
		return err
	}

	pctx, pcancel := b.storeCtx(ctx)
	defer pcancel()
	if err := b.Events.Publish(pctx, *a); err != nil {
		b.Logger.Warn("activity_publish_failed",
			zap.String("user_id", userID),
			zap.String("activity_type", string(typ)),
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
	return nil
}

// invalidateListings drops cached explore listings after a catalogue write.
func (b *base) invalidateListings(ctx context.Context) {
	if err := b.Cache.Invalidate(ctx); err != nil {
		b.Logger.Warn("cache_invalidate_failed", zap.Error(err))
	}
}
