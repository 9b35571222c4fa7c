package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"docspot/internal/model"
	"docspot/internal/repository"
	"docspot/internal/storage"
)

// ErrReaderNil is returned when an upload carries no file.
var ErrReaderNil = fmt.Errorf("%w: file is required", ErrInvalidRequest)

// UploadInput is the metadata of a new document.
type UploadInput struct {
	Title          string
	Description    string
	University     string
	Semester       model.Semester
	AcademicYear   int
	CourseName     string
	InstructorName string
	AccessType     model.AccessType
	Price          decimal.Decimal
	Tags           []string
}

// FileInput is the uploaded file, streamed to object storage as is.
type FileInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentService defines the use cases of the document catalogue.
type DocumentService interface {
	// Upload stores the file in object storage, then saves the document with its passkey pool.
	// If saving fails the stored object is deleted again.
	Upload(ctx context.Context, ownerID string, in UploadInput, file FileInput) (*model.Document, error)

	// Get returns a document. Passkeys are only visible to its owner.
	Get(ctx context.Context, userID, id string) (*model.Document, error)

	// ListUploaded returns the owner's documents with their passkeys, newest first.
	ListUploaded(ctx context.Context, ownerID string) ([]model.Document, error)

	// Explore returns other users' documents, optionally filtered by title substring or tag.
	Explore(ctx context.Context, userID, query string) ([]model.Document, error)
}

type documentService struct {
	base
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d Deps) DocumentService {
	return &documentService{base: newBase(d)}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, in UploadInput, file FileInput) (_ *model.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.Upload", attribute.String("user.id", ownerID))
	defer func() { endSpan(span, err) }()

	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if file.Reader == nil {
		return nil, ErrReaderNil
	}

	doc := &model.Document{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		University:     strings.TrimSpace(in.University),
		Semester:       in.Semester,
		AcademicYear:   in.AcademicYear,
		CourseName:     strings.TrimSpace(in.CourseName),
		InstructorName: strings.TrimSpace(in.InstructorName),
		AccessType:     in.AccessType,
		Price:          in.Price.Round(2),
		OwnerID:        ownerID,
		Tags:           model.NormalizeTags(in.Tags),
		CreatedAt:      time.Now().UTC(),
	}
	if doc.IsPaid() {
		if doc.Passkeys, err = generatePasskeys(s.PasskeyPoolSize); err != nil {
			return nil, fmt.Errorf("generate passkeys: %w", err)
		}
	}
	// Reject bad metadata before anything reaches object storage.
	if err := doc.Validate(); err != nil {
		return nil, translate("validate document", err)
	}

	key := filepath.ToSlash(filepath.Join("documents", doc.ID+strings.ToLower(filepath.Ext(file.Filename))))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	obj, err := s.Storage.Put(ctx, key, file.Reader, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": file.Filename,
			"owner-id":          ownerID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if obj.URL == "" {
		s.rollbackObject(ctx, key)
		return nil, fmt.Errorf("%w: storage returned no url", ErrUploadFailed)
	}
	doc.FileURL = obj.URL

	sctx, cancel := s.storeCtx(ctx)
	stored, err := s.Documents.Create(sctx, doc)
	cancel()
	if err != nil {
		s.rollbackObject(ctx, key)
		return nil, translate("save document", err)
	}

	if err := s.recordActivity(ctx, ownerID, model.ActivityPublish, stored.ID); err != nil {
		s.Logger.Warn("access_log_degraded",
			zap.String("user_id", ownerID),
			zap.String("document_id", stored.ID),
			zap.Error(warning("record activity", err, false)),
		)
	}
	s.invalidateListings(ctx)

	s.Logger.Info("document_published",
		zap.String("user_id", ownerID),
		zap.String("document_id", stored.ID),
		zap.String("access_type", string(stored.AccessType)),
		zap.Int("passkeys", len(stored.Passkeys)),
	)
	return stored, nil
}

// rollbackObject deletes an object whose metadata could not be saved.
func (s *documentService) rollbackObject(ctx context.Context, key string) {
	dctx, cancel := s.storeCtx(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.Storage.Delete(dctx, key); err != nil {
		s.Logger.Error("upload_rollback_failed", zap.String("object_key", key), zap.Error(err))
	}
}

func (s *documentService) Get(ctx context.Context, userID, id string) (*model.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != userID {
		pub := doc.Public()
		return &pub, nil
	}
	return doc, nil
}

func (s *documentService) ListUploaded(ctx context.Context, ownerID string) ([]model.Document, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	docs, err := s.Documents.ListByOwner(sctx, ownerID)
	if err != nil {
		return nil, translate("list uploaded", err)
	}
	return docs, nil
}

func (s *documentService) Explore(ctx context.Context, userID, query string) ([]model.Document, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	query = strings.ToLower(strings.TrimSpace(query))

	docs, hit, err := s.Cache.Get(ctx, userID, query)
	if err != nil {
		s.Logger.Warn("cache_get_failed", zap.Error(err))
	}
	if hit {
		return docs, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	docs, err = s.Documents.ListExcludingOwner(sctx, userID, repository.ListFilter{Query: query})
	cancel()
	if err != nil {
		return nil, translate("explore", err)
	}
	for i := range docs {
		docs[i] = docs[i].Public()
	}

	if err := s.Cache.Set(ctx, userID, query, docs); err != nil {
		s.Logger.Warn("cache_set_failed", zap.Error(err))
	}
	return docs, nil
}
