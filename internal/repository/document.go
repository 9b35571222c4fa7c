package repository

import (
	"context"

	"docspot/internal/model"
)

// DocumentRepository defines data access for documents and their passkey pools.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a document together with its tags and passkey pool.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByOwner returns the documents uploaded by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)

	// ListExcludingOwner returns documents not uploaded by ownerID.
	// A non-empty filter.Query matches a case-insensitive title substring or an exact tag.
	ListExcludingOwner(ctx context.Context, ownerID string, filter ListFilter) ([]model.Document, error)

	// IncrementUpvote atomically adds one upvote and returns the new count, or ErrNotFound.
	IncrementUpvote(ctx context.Context, id string) (int64, error)

	// ClaimPasskey atomically marks the first unused passkey of a document as used by userID
	// and returns it. Returns ErrPasskeysExhausted when none is left and ErrNotFound when
	// the document does not exist.
	ClaimPasskey(ctx context.Context, documentID, userID string) (string, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// ListFilter narrows a document listing.
type ListFilter struct {
	Query string
	PageQuery
}
