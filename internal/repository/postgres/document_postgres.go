package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docspot/internal/database"
	"docspot/internal/model"
	"docspot/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, description, university, semester, academic_year, course_name,
		instructor_name, access_type, price, file_url, owner_id, upvotes, tags, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d    model.Document
		tags []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.University,
		&d.Semester,
		&d.AcademicYear,
		&d.CourseName,
		&d.InstructorName,
		&d.AccessType,
		&d.Price,
		&d.FileURL,
		&d.OwnerID,
		&d.Upvotes,
		&tags,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &d, nil
}

// Create inserts the document row and its passkey pool in one transaction.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + documentColumns
	const qKey = `
		INSERT INTO document_passkeys (document_id, position, key)
		VALUES ($1, $2, $3)
	`
	var out *model.Document
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		out, err = scanDocument(tx.QueryRowContext(ctx, q,
			doc.ID,
			doc.Title,
			doc.Description,
			doc.University,
			doc.Semester,
			doc.AcademicYear,
			doc.CourseName,
			doc.InstructorName,
			doc.AccessType,
			doc.Price,
			doc.FileURL,
			doc.OwnerID,
			doc.Upvotes,
			string(tagsJSON),
			doc.CreatedAt,
		))
		if err != nil {
			return err
		}
		for i, pk := range doc.Passkeys {
			if _, err := tx.ExecContext(ctx, qKey, out.ID, i, pk.Key); err != nil {
				return fmt.Errorf("insert passkey: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Passkeys = make([]model.Passkey, len(doc.Passkeys))
	for i, pk := range doc.Passkeys {
		out.Passkeys[i] = model.Passkey{Key: pk.Key}
	}
	return out, nil
}

// FindByID fetches a single document with its passkey pool.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if d.Passkeys, err = r.passkeys(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByOwner returns the owner's documents, newest first, passkeys included.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	docs, err := r.query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].Passkeys, err = r.passkeys(ctx, docs[i].ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// ListExcludingOwner returns other users' documents, optionally filtered by title or tag.
func (r *DocumentPostgres) ListExcludingOwner(ctx context.Context, ownerID string, filter repository.ListFilter) ([]model.Document, error) {
	var (
		sb   strings.Builder
		args = []any{ownerID}
	)
	sb.WriteString(`SELECT ` + documentColumns + ` FROM documents WHERE owner_id <> $1`)

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		args = append(args, "%"+escapeLike(q)+"%", q)
		sb.WriteString(` AND (title ILIKE $2 OR tags ? $3)`)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		fmt.Fprintf(&sb, ` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	return r.query(ctx, sb.String(), args...)
}

// IncrementUpvote adds one upvote in a single statement.
func (r *DocumentPostgres) IncrementUpvote(ctx context.Context, id string) (int64, error) {
	const q = `UPDATE documents SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`
	var upvotes int64
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&upvotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return upvotes, nil
}

// ClaimPasskey marks the first unused key as used in one statement.
// SKIP LOCKED lets concurrent claimers move on to the next free key instead of queueing on the same row.
func (r *DocumentPostgres) ClaimPasskey(ctx context.Context, documentID, userID string) (string, error) {
	const q = `
		UPDATE document_passkeys
		SET is_used = TRUE, used_by = $2, used_at = now()
		WHERE id = (
			SELECT id FROM document_passkeys
			WHERE document_id = $1 AND NOT is_used
			ORDER BY position
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING key
	`
	var key string
	err := r.db.QueryRowContext(ctx, q, documentID, userID).Scan(&key)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var exists bool
	const qExists = `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, qExists, documentID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", repository.ErrNotFound
	}
	return "", repository.ErrPasskeysExhausted
}

func (r *DocumentPostgres) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DocumentPostgres) passkeys(ctx context.Context, documentID string) ([]model.Passkey, error) {
	const q = `
		SELECT key, is_used, used_by
		FROM document_passkeys
		WHERE document_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.Passkey
	for rows.Next() {
		var (
			pk     model.Passkey
			usedBy sql.NullString
		)
		if err := rows.Scan(&pk.Key, &pk.IsUsed, &usedBy); err != nil {
			return nil, err
		}
		if usedBy.Valid {
			pk.UsedBy = &usedBy.String
		}
		keys = append(keys, pk)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
