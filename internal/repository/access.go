package repository

import (
	"context"

	"docspot/internal/model"
)

// AccessLogRepository is the append-only log of access grants and activity events.
type AccessLogRepository interface {
	// RecordDownload appends a DownloadedDoc row. Repeated downloads produce repeated rows.
	RecordDownload(ctx context.Context, userID, documentID string, usedKey *string) (*model.DownloadedDoc, error)

	// RecordActivity appends an activity event.
	RecordActivity(ctx context.Context, a *model.Activity) (*model.Activity, error)

	// ListDownloads returns the downloads of userID, newest first.
	ListDownloads(ctx context.Context, userID string) ([]model.DownloadedDoc, error)

	// ListActivities returns at most limit activity events of userID, newest first.
	ListActivities(ctx context.Context, userID string, limit int) ([]model.Activity, error)

	// PurchaseMismatches lists (user, document) pairs with more purchase debits than downloads.
	PurchaseMismatches(ctx context.Context) ([]model.PurchaseMismatch, error)
}
