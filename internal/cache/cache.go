package cache

import (
	"context"

	"docspot/internal/model"
)

// DocumentListCache stores explore listings. Any write to the catalogue invalidates every entry.
type DocumentListCache interface {
	// Get returns the cached listing and whether it was present.
	Get(ctx context.Context, userID, query string) ([]model.Document, bool, error)
	Set(ctx context.Context, userID, query string, docs []model.Document) error
	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context) error
}

// Noop never caches. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]model.Document, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, string, []model.Document) error { return nil }

func (Noop) Invalidate(context.Context) error { return nil }
