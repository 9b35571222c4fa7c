package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"docspot/internal/model"
	"docspot/internal/repository"
)

// AccessLogPostgres is a PostgreSQL implementation of repository.AccessLogRepository.
type AccessLogPostgres struct {
	db *sql.DB
}

// NewAccessLogPostgres creates a new AccessLogPostgres repository.
func NewAccessLogPostgres(db *sql.DB) *AccessLogPostgres {
	return &AccessLogPostgres{db: db}
}

var _ repository.AccessLogRepository = (*AccessLogPostgres)(nil)

func (r *AccessLogPostgres) RecordDownload(ctx context.Context, userID, documentID string, usedKey *string) (*model.DownloadedDoc, error) {
	d := &model.DownloadedDoc{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentID:   documentID,
		UsedKey:      usedKey,
		DownloadedAt: time.Now().UTC(),
	}
	const q = `
		INSERT INTO downloaded_docs (id, user_id, document_id, used_key, downloaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	key := sql.NullString{}
	if usedKey != nil {
		key = sql.NullString{String: *usedKey, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, q, d.ID, d.UserID, d.DocumentID, key, d.DownloadedAt); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *AccessLogPostgres) RecordActivity(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	out := *a
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	const q = `
		INSERT INTO activities (id, user_id, type, content_ref, content_type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, q, out.ID, out.UserID, out.Type, out.ContentRef, out.ContentType, out.Timestamp); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AccessLogPostgres) ListDownloads(ctx context.Context, userID string) ([]model.DownloadedDoc, error) {
	const q = `
		SELECT id, user_id, document_id, used_key, downloaded_at
		FROM downloaded_docs
		WHERE user_id = $1
		ORDER BY downloaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DownloadedDoc, 0)
	for rows.Next() {
		var (
			d   model.DownloadedDoc
			key sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.DocumentID, &key, &d.DownloadedAt); err != nil {
			return nil, err
		}
		if key.Valid {
			d.UsedKey = &key.String
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *AccessLogPostgres) ListActivities(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	const q = `
		SELECT id, user_id, type, content_ref, content_type, timestamp
		FROM activities
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.ContentRef, &a.ContentType, &a.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// PurchaseMismatches compares purchase debits with download rows per (user, document).
func (r *AccessLogPostgres) PurchaseMismatches(ctx context.Context) ([]model.PurchaseMismatch, error) {
	const q = `
		SELECT t.user_id, t.document_id, t.debits, COALESCE(d.downloads, 0)
		FROM (
			SELECT user_id, document_id, COUNT(*) AS debits
			FROM wallet_transactions
			WHERE type = 'debit' AND document_id IS NOT NULL AND description LIKE $1
			GROUP BY user_id, document_id
		) t
		LEFT JOIN (
			SELECT user_id, document_id, COUNT(*) AS downloads
			FROM downloaded_docs
			GROUP BY user_id, document_id
		) d ON d.user_id = t.user_id AND d.document_id = t.document_id
		WHERE t.debits > COALESCE(d.downloads, 0)
		ORDER BY t.user_id, t.document_id
	`
	rows, err := r.db.QueryContext(ctx, q, repository.PurchaseDescriptionPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PurchaseMismatch, 0)
	for rows.Next() {
		var m model.PurchaseMismatch
		if err := rows.Scan(&m.UserID, &m.DocumentID, &m.Debits, &m.Downloads); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
