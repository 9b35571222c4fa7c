package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docspot/internal/model"
	"docspot/internal/repository"
	repoMocks "docspot/internal/repository/mocks"
	"docspot/internal/storage"
	storeMocks "docspot/internal/storage/mocks"
)

type fakeListCache struct {
	mu          sync.Mutex
	entries     map[string][]model.Document
	invalidated int
	getErr      error
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{entries: map[string][]model.Document{}}
}

func (c *fakeListCache) Get(_ context.Context, userID, query string) ([]model.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	docs, ok := c.entries[userID+"|"+query]
	return docs, ok, nil
}

func (c *fakeListCache) Set(_ context.Context, userID, query string, docs []model.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID+"|"+query] = docs
	return nil
}

func (c *fakeListCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]model.Document{}
	c.invalidated++
	return nil
}

func validUpload(access model.AccessType, price int64) UploadInput {
	return UploadInput{
		Title:        "  Compiler Design Notes ",
		Description:  "Lecture 1-12",
		University:   "ITB",
		Semester:     model.SemesterSpring,
		AcademicYear: 2024,
		CourseName:   "Compilers",
		AccessType:   access,
		Price:        decimal.NewFromInt(price),
		Tags:         []string{"Compilers", " parsing", "compilers"},
	}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         UploadInput
		file       func() FileInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mLog *repoMocks.MockAccessLogRepository)
		wantErr    error
		check      func(t *testing.T, doc *model.Document, c *fakeListCache)
	}{
		{
			name: "paid document gets a passkey pool",
			in:   validUpload(model.AccessPaid, 50),
			file: func() FileInput {
				return FileInput{Reader: strings.NewReader("%PDF-1.4"), Filename: "notes.PDF", ContentType: "application/pdf", Size: 8}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mLog *repoMocks.MockAccessLogRepository) {
				mStore.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 8 && opt.ContentType == "application/pdf" &&
						opt.Metadata["original-filename"] == "notes.PDF" && opt.Metadata["owner-id"] == "owner"
				})).Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key, URL: "https://files.example/" + key}
				}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Title == "Compiler Design Notes" &&
						doc.OwnerID == "owner" &&
						strings.HasPrefix(doc.FileURL, "https://files.example/documents/") &&
						len(doc.Passkeys) == defaultPasskeyPoolSize &&
						assert.ObjectsAreEqual([]string{"compilers", "parsing"}, doc.Tags)
				})).Return(&model.Document{ID: "doc-1", OwnerID: "owner", AccessType: model.AccessPaid}, nil)

				mLog.On("RecordActivity", mock.Anything, mock.MatchedBy(func(a *model.Activity) bool {
					return a.Type == model.ActivityPublish && a.ContentRef == "doc-1" && a.UserID == "owner"
				})).Return(&model.Activity{ID: "a1"}, nil)
			},
			check: func(t *testing.T, doc *model.Document, c *fakeListCache) {
				assert.Equal(t, "doc-1", doc.ID)
				assert.Equal(t, 1, c.invalidated)
			},
		},
		{
			name: "free document carries no passkeys",
			in:   validUpload(model.AccessFree, 0),
			file: func() FileInput {
				return FileInput{Reader: strings.NewReader("hello"), Filename: "notes.txt", Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mLog *repoMocks.MockAccessLogRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/octet-stream"
				})).Return(storage.ObjectInfo{URL: "https://files.example/documents/x.txt"}, nil)
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Passkeys == nil && doc.FileURL == "https://files.example/documents/x.txt"
				})).Return(&model.Document{ID: "doc-2"}, nil)
				mLog.On("RecordActivity", mock.Anything, mock.Anything).Return(nil, errors.New("log down"))
			},
			check: func(t *testing.T, doc *model.Document, c *fakeListCache) {
				assert.Equal(t, "doc-2", doc.ID)
			},
		},
		{
			name: "invalid metadata never reaches storage",
			in:   validUpload(model.AccessPaid, 0),
			file: func() FileInput {
				return FileInput{Reader: strings.NewReader("x"), Filename: "a.pdf", Size: 1}
			},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockDocumentRepository, *repoMocks.MockAccessLogRepository) {},
			wantErr:    ErrInvalidRequest,
		},
		{
			name: "missing file",
			in:   validUpload(model.AccessFree, 0),
			file: func() FileInput {
				return FileInput{Filename: "a.pdf"}
			},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockDocumentRepository, *repoMocks.MockAccessLogRepository) {},
			wantErr:    ErrInvalidRequest,
		},
		{
			name: "storage failure",
			in:   validUpload(model.AccessFree, 0),
			file: func() FileInput {
				return FileInput{Reader: strings.NewReader("x"), Filename: "a.pdf", Size: 1}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, _ *repoMocks.MockDocumentRepository, _ *repoMocks.MockAccessLogRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("bucket unavailable"))
			},
			wantErr: ErrUploadFailed,
		},
		{
			name: "database failure deletes the stored object",
			in:   validUpload(model.AccessFree, 0),
			file: func() FileInput {
				return FileInput{Reader: strings.NewReader("x"), Filename: "a.pdf", Size: 1}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, _ *repoMocks.MockAccessLogRepository) {
				var stored string
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) { stored = args.String(1) }).
					Return(storage.ObjectInfo{URL: "https://files.example/x"}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrAlreadyExists)
				mStore.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
					return key != "" && key == stored
				})).Return(nil).Once()
			},
			wantErr: ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			mLog := new(repoMocks.MockAccessLogRepository)
			c := newFakeListCache()
			tt.setupMocks(mStore, mRepo, mLog)

			svc := NewDocumentService(Deps{Documents: mRepo, AccessLog: mLog, Storage: mStore, Cache: c})
			doc, err := svc.Upload(ctx, "owner", tt.in, tt.file())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				assert.Zero(t, c.invalidated)
			} else {
				require.NoError(t, err)
				tt.check(t, doc, c)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	used := "buyer"
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("FindByID", mock.Anything, "doc-1").Return(&model.Document{
		ID: "doc-1", OwnerID: "owner", AccessType: model.AccessPaid,
		Passkeys: []model.Passkey{{Key: "k1", IsUsed: true, UsedBy: &used}, {Key: "k2"}},
	}, nil)
	mRepo.On("FindByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	svc := NewDocumentService(Deps{Documents: mRepo})

	own, err := svc.Get(ctx, "owner", "doc-1")
	require.NoError(t, err)
	assert.Len(t, own.Passkeys, 2)

	other, err := svc.Get(ctx, "stranger", "doc-1")
	require.NoError(t, err)
	assert.Nil(t, other.Passkeys)

	_, err = svc.Get(ctx, "owner", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "owner", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDocumentService_ListUploaded(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("ListByOwner", mock.Anything, "owner").Return([]model.Document{
		{ID: "d1", Passkeys: []model.Passkey{{Key: "k"}}},
	}, nil)

	svc := NewDocumentService(Deps{Documents: mRepo})
	docs, err := svc.ListUploaded(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Passkeys, 1)

	_, err = svc.ListUploaded(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDocumentService_Explore(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("ListExcludingOwner", mock.Anything, "me", repository.ListFilter{Query: "algebra"}).Return([]model.Document{
		{ID: "d1", OwnerID: "other", Passkeys: []model.Passkey{{Key: "secret"}}},
	}, nil).Once()

	c := newFakeListCache()
	svc := NewDocumentService(Deps{Documents: mRepo, Cache: c})

	docs, err := svc.Explore(ctx, "me", "  Algebra ")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Nil(t, docs[0].Passkeys)

	again, err := svc.Explore(ctx, "me", "algebra")
	require.NoError(t, err)
	assert.Equal(t, docs, again)
	mRepo.AssertNumberOfCalls(t, "ListExcludingOwner", 1)

	t.Run("cache errors fall back to the store", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("ListExcludingOwner", mock.Anything, "me", repository.ListFilter{}).Return([]model.Document{}, nil)
		c := newFakeListCache()
		c.getErr = errors.New("redis down")

		svc := NewDocumentService(Deps{Documents: mRepo, Cache: c})
		docs, err := svc.Explore(ctx, "me", "")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Explore(ctx, "", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
