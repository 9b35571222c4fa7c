package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docspot/internal/model"
	"docspot/internal/repository"
	"docspot/internal/repository/memory"
	repoMocks "docspot/internal/repository/mocks"
)

type marketFixture struct {
	store   *memory.Store
	svc     AccessService
	metrics *Metrics
}

// newMarket seeds a buyer, an owner and one document priced at price (zero means free).
func newMarket(t *testing.T, buyerBalance int64, price int64) *marketFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	_, err := store.CreateWallet(ctx, "buyer", decimal.NewFromInt(buyerBalance))
	require.NoError(t, err)
	_, err = store.CreateWallet(ctx, "owner", decimal.NewFromInt(200))
	require.NoError(t, err)

	doc := &model.Document{
		ID:           "doc-1",
		Title:        "Linear Algebra Notes",
		Semester:     model.SemesterFall,
		AcademicYear: 2024,
		CourseName:   "Linear Algebra",
		AccessType:   model.AccessFree,
		FileURL:      "https://files.example/documents/doc-1.pdf",
		OwnerID:      "owner",
	}
	if price > 0 {
		doc.AccessType = model.AccessPaid
		doc.Price = decimal.NewFromInt(price)
		for i := 0; i < 10; i++ {
			doc.Passkeys = append(doc.Passkeys, model.Passkey{Key: fmt.Sprintf("key%07d", i)})
		}
	}
	_, err = store.Create(ctx, doc)
	require.NoError(t, err)

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	return &marketFixture{
		store:   store,
		metrics: m,
		svc: NewAccessService(Deps{
			Documents: store,
			Wallets:   store,
			AccessLog: store,
			Metrics:   m,
		}),
	}
}

func (f *marketFixture) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	w, err := f.store.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func (f *marketFixture) grants(kind, outcome string) float64 {
	return testutil.ToFloat64(f.metrics.grants.WithLabelValues(kind, outcome))
}

func TestAccessService_BuyDocument_Success(t *testing.T) {
	f := newMarket(t, 200, 50)
	ctx := context.Background()

	res, err := f.svc.BuyDocument(ctx, "buyer", "doc-1")
	require.NoError(t, err)

	assert.True(t, res.Committed)
	assert.False(t, res.Degraded())
	assert.Equal(t, "https://files.example/documents/doc-1.pdf", res.FileURL)
	require.NotNil(t, res.UsedKey)

	assert.True(t, decimal.NewFromInt(150).Equal(f.balance(t, "buyer")))
	assert.True(t, decimal.NewFromInt(250).Equal(f.balance(t, "owner")))

	downloads, err := f.store.ListDownloads(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	require.NotNil(t, downloads[0].UsedKey)
	assert.Equal(t, *res.UsedKey, *downloads[0].UsedKey)

	acts, err := f.store.ListActivities(ctx, "buyer", 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, model.ActivityDownload, acts[0].Type)
	assert.Equal(t, "doc-1", acts[0].ContentRef)

	doc, err := f.store.FindByID(ctx, "doc-1")
	require.NoError(t, err)
	used := 0
	for _, pk := range doc.Passkeys {
		if pk.IsUsed {
			used++
			assert.Equal(t, *res.UsedKey, pk.Key)
			require.NotNil(t, pk.UsedBy)
			assert.Equal(t, "buyer", *pk.UsedBy)
		}
	}
	assert.Equal(t, 1, used)

	buyer, _ := f.store.FindByUserID(ctx, "buyer")
	require.Len(t, buyer.Transactions, 1)
	assert.Equal(t, model.TransactionDebit, buyer.Transactions[0].Type)
	assert.Equal(t, "Purchase: Linear Algebra Notes", buyer.Transactions[0].Description)

	assert.Equal(t, 1.0, f.grants(KindPurchase, OutcomeGranted))
}

func TestAccessService_BuyDocument_InsufficientBalanceChangesNothing(t *testing.T) {
	f := newMarket(t, 30, 50)
	ctx := context.Background()

	res, err := f.svc.BuyDocument(ctx, "buyer", "doc-1")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.True(t, decimal.NewFromInt(30).Equal(f.balance(t, "buyer")))
	assert.True(t, decimal.NewFromInt(200).Equal(f.balance(t, "owner")))

	downloads, _ := f.store.ListDownloads(ctx, "buyer")
	assert.Empty(t, downloads)
	acts, _ := f.store.ListActivities(ctx, "buyer", 10)
	assert.Empty(t, acts)

	doc, _ := f.store.FindByID(ctx, "doc-1")
	for _, pk := range doc.Passkeys {
		assert.False(t, pk.IsUsed)
	}
	assert.Equal(t, 1.0, f.grants(KindPurchase, OutcomeRejected))
}

func TestAccessService_BuyDocument_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("free document", func(t *testing.T) {
		f := newMarket(t, 200, 0)
		_, err := f.svc.BuyDocument(ctx, "buyer", "doc-1")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.True(t, decimal.NewFromInt(200).Equal(f.balance(t, "buyer")))
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		_, err := f.svc.BuyDocument(ctx, "buyer", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("own document", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		_, err := f.svc.BuyDocument(ctx, "owner", "doc-1")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.True(t, decimal.NewFromInt(200).Equal(f.balance(t, "owner")))
	})

	t.Run("buyer without wallet", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		_, err := f.svc.BuyDocument(ctx, "stranger", "doc-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		_, err := f.svc.BuyDocument(ctx, "", "doc-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing file url", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		docs.On("FindByID", mock.Anything, "doc-1").Return(&model.Document{
			ID: "doc-1", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50), OwnerID: "owner",
		}, nil)

		svc := NewAccessService(Deps{Documents: docs, Wallets: wallets, AccessLog: new(repoMocks.MockAccessLogRepository)})
		_, err := svc.BuyDocument(ctx, "buyer", "doc-1")
		assert.ErrorIs(t, err, ErrMissingAsset)
		wallets.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})
}

func TestAccessService_BuyDocument_ConcurrentBuysNeverOverdraw(t *testing.T) {
	f := newMarket(t, 120, 50)
	ctx := context.Background()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok         int
		rejected   int
		usedKeys   = map[string]bool{}
		unexpected []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.BuyDocument(ctx, "buyer", "doc-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
				if assert.NotNil(t, res.UsedKey) {
					usedKeys[*res.UsedKey] = true
				}
			case errors.Is(err, ErrInsufficientBalance):
				rejected++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 3, rejected)
	assert.Len(t, usedKeys, 2)
	assert.True(t, decimal.NewFromInt(20).Equal(f.balance(t, "buyer")))
	assert.True(t, decimal.NewFromInt(300).Equal(f.balance(t, "owner")))
}

func TestAccessService_BuyDocument_LoggingFailureKeepsTransfer(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	wallets := new(repoMocks.MockWalletRepository)
	accessLog := new(repoMocks.MockAccessLogRepository)

	doc := &model.Document{
		ID: "doc-1", Title: "Notes", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50),
		OwnerID: "owner", FileURL: "https://files.example/doc-1.pdf",
	}
	docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
	docs.On("ClaimPasskey", mock.Anything, "doc-1", "buyer").Return("", repository.ErrPasskeysExhausted)
	wallets.On("FindByUserID", mock.Anything, "buyer").Return(&model.Wallet{UserID: "buyer", Balance: decimal.NewFromInt(200)}, nil)
	wallets.On("FindByUserID", mock.Anything, "owner").Return(&model.Wallet{UserID: "owner", Balance: decimal.NewFromInt(200)}, nil)
	wallets.On("Transfer", mock.Anything, mock.MatchedBy(func(in repository.TransferInput) bool {
		return in.From == "buyer" && in.To == "owner" && in.Amount.Equal(decimal.NewFromInt(50)) &&
			in.DebitDescription == "Purchase: Notes" && in.DocumentID == "doc-1"
	})).Return(&repository.TransferResult{FromBalance: decimal.NewFromInt(150), ToBalance: decimal.NewFromInt(250)}, nil)
	accessLog.On("RecordDownload", mock.Anything, "buyer", "doc-1", (*string)(nil)).Return(nil, errors.New("connection reset"))
	accessLog.On("RecordActivity", mock.Anything, mock.Anything).Return(&model.Activity{ID: "a1", UserID: "buyer"}, nil)

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	svc := NewAccessService(Deps{Documents: docs, Wallets: wallets, AccessLog: accessLog, Metrics: m})

	res, err := svc.BuyDocument(ctx, "buyer", "doc-1")
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.True(t, res.Degraded())
	assert.Nil(t, res.UsedKey)
	assert.Equal(t, doc.FileURL, res.FileURL)
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.ErrorIs(t, w, ErrLoggingFailure)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.grants.WithLabelValues(KindPurchase, OutcomeDegraded)))
	wallets.AssertNumberOfCalls(t, "Transfer", 1)
}

func blockUntilDeadline(args mock.Arguments) {
	<-args.Get(0).(context.Context).Done()
}

func TestAccessService_BuyDocument_Timeouts(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{
		ID: "doc-1", Title: "Notes", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50),
		OwnerID: "owner", FileURL: "https://files.example/doc-1.pdf",
	}
	wallet := func(id string) *model.Wallet {
		return &model.Wallet{UserID: id, Balance: decimal.NewFromInt(200)}
	}

	t.Run("transfer times out before commit", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
		wallets.On("FindByUserID", mock.Anything, "buyer").Return(wallet("buyer"), nil)
		wallets.On("FindByUserID", mock.Anything, "owner").Return(wallet("owner"), nil)
		wallets.On("Transfer", mock.Anything, mock.Anything).Run(blockUntilDeadline).Return(nil, context.DeadlineExceeded)

		m, _ := NewMetrics(prometheus.NewRegistry())
		svc := NewAccessService(Deps{
			Documents: docs, Wallets: wallets, AccessLog: new(repoMocks.MockAccessLogRepository),
			Metrics: m, StoreTimeout: 20 * time.Millisecond,
		})

		res, err := svc.BuyDocument(ctx, "buyer", "doc-1")
		assert.Nil(t, res)
		require.ErrorIs(t, err, ErrTimeout)
		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		require.NotNil(t, te.Committed)
		assert.False(t, *te.Committed)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.grants.WithLabelValues(KindPurchase, OutcomeTimeout)))
	})

	t.Run("lookup times out", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		docs.On("FindByID", mock.Anything, "doc-1").Run(blockUntilDeadline).Return(nil, context.DeadlineExceeded)

		svc := NewAccessService(Deps{
			Documents: docs, Wallets: wallets, AccessLog: new(repoMocks.MockAccessLogRepository),
			StoreTimeout: 20 * time.Millisecond,
		})
		_, err := svc.BuyDocument(ctx, "buyer", "doc-1")
		assert.ErrorIs(t, err, ErrTimeout)
		wallets.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})

	t.Run("logging times out after commit", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		accessLog := new(repoMocks.MockAccessLogRepository)
		docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
		docs.On("ClaimPasskey", mock.Anything, "doc-1", "buyer").Return("key0000001", nil)
		wallets.On("FindByUserID", mock.Anything, "buyer").Return(wallet("buyer"), nil)
		wallets.On("FindByUserID", mock.Anything, "owner").Return(wallet("owner"), nil)
		wallets.On("Transfer", mock.Anything, mock.Anything).Return(&repository.TransferResult{}, nil)
		accessLog.On("RecordDownload", mock.Anything, "buyer", "doc-1", mock.Anything).Run(blockUntilDeadline).Return(nil, context.DeadlineExceeded)
		accessLog.On("RecordActivity", mock.Anything, mock.Anything).Return(&model.Activity{ID: "a1"}, nil)

		svc := NewAccessService(Deps{
			Documents: docs, Wallets: wallets, AccessLog: accessLog,
			StoreTimeout: 20 * time.Millisecond,
		})
		res, err := svc.BuyDocument(ctx, "buyer", "doc-1")
		require.NoError(t, err)
		require.NotNil(t, res.UsedKey)
		assert.Equal(t, "key0000001", *res.UsedKey)
		require.Len(t, res.Warnings, 1)
		assert.ErrorIs(t, res.Warnings[0], ErrLoggingFailure)
		var te *TimeoutError
		require.ErrorAs(t, res.Warnings[0], &te)
		require.NotNil(t, te.Committed)
		assert.True(t, *te.Committed)
	})
}

// lateReplyWallets applies the transfer and then reports the deadline, as a commit whose reply was lost does.
type lateReplyWallets struct {
	*memory.Store
}

func (w lateReplyWallets) Transfer(ctx context.Context, in repository.TransferInput) (*repository.TransferResult, error) {
	if _, err := w.Store.Transfer(ctx, in); err != nil {
		return nil, err
	}
	return nil, context.DeadlineExceeded
}

func TestAccessService_BuyDocument_TransferReplyLost(t *testing.T) {
	ctx := context.Background()

	t.Run("committed transfer is detected", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		m, err := NewMetrics(prometheus.NewRegistry())
		require.NoError(t, err)
		svc := NewAccessService(Deps{
			Documents: f.store,
			Wallets:   lateReplyWallets{f.store},
			AccessLog: f.store,
			Metrics:   m,
		})

		res, err := svc.BuyDocument(ctx, "buyer", "doc-1")
		require.NoError(t, err)
		assert.True(t, res.Committed)
		require.NotNil(t, res.UsedKey)
		assert.True(t, decimal.NewFromInt(150).Equal(f.balance(t, "buyer")))
		assert.True(t, decimal.NewFromInt(250).Equal(f.balance(t, "owner")))

		downloads, err := f.store.ListDownloads(ctx, "buyer")
		require.NoError(t, err)
		require.Len(t, downloads, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.grants.WithLabelValues(KindPurchase, OutcomeGranted)))
	})

	t.Run("earlier purchase of the same document is not mistaken for this one", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		doc := &model.Document{
			ID: "doc-1", Title: "Notes", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50),
			OwnerID: "owner", FileURL: "https://files.example/doc-1.pdf",
		}
		buyer := &model.Wallet{UserID: "buyer", Balance: decimal.NewFromInt(150), Transactions: []model.Transaction{{
			Type: model.TransactionDebit, Amount: decimal.NewFromInt(50), DocumentID: "doc-1",
			Description: repository.PurchaseDescriptionPrefix + "Notes", CreatedAt: time.Now().Add(-time.Hour),
		}}}
		docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
		wallets.On("FindByUserID", mock.Anything, "buyer").Return(buyer, nil)
		wallets.On("FindByUserID", mock.Anything, "owner").Return(&model.Wallet{UserID: "owner"}, nil)
		wallets.On("Transfer", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

		svc := NewAccessService(Deps{Documents: docs, Wallets: wallets, AccessLog: new(repoMocks.MockAccessLogRepository)})
		_, err := svc.BuyDocument(ctx, "buyer", "doc-1")

		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		require.NotNil(t, te.Committed)
		assert.False(t, *te.Committed)
	})

	t.Run("outcome unknown when the wallet cannot be re-read", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		wallets := new(repoMocks.MockWalletRepository)
		doc := &model.Document{
			ID: "doc-1", Title: "Notes", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50),
			OwnerID: "owner", FileURL: "https://files.example/doc-1.pdf",
		}
		docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
		wallets.On("FindByUserID", mock.Anything, "buyer").Return(&model.Wallet{UserID: "buyer", Balance: decimal.NewFromInt(200)}, nil).Once()
		wallets.On("FindByUserID", mock.Anything, "owner").Return(&model.Wallet{UserID: "owner"}, nil)
		wallets.On("Transfer", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
		wallets.On("FindByUserID", mock.Anything, "buyer").Return(nil, errors.New("connection refused")).Once()

		m, err := NewMetrics(prometheus.NewRegistry())
		require.NoError(t, err)
		svc := NewAccessService(Deps{
			Documents: docs, Wallets: wallets, AccessLog: new(repoMocks.MockAccessLogRepository), Metrics: m,
		})
		res, err := svc.BuyDocument(ctx, "buyer", "doc-1")

		assert.Nil(t, res)
		require.ErrorIs(t, err, ErrTimeout)
		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Nil(t, te.Committed)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.grants.WithLabelValues(KindPurchase, OutcomeTimeout)))
		wallets.AssertExpectations(t)
	})
}

func TestAccessService_BuyDocument_CallerCancelAfterCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	docs := new(repoMocks.MockDocumentRepository)
	wallets := new(repoMocks.MockWalletRepository)
	accessLog := new(repoMocks.MockAccessLogRepository)
	doc := &model.Document{
		ID: "doc-1", Title: "Notes", AccessType: model.AccessPaid, Price: decimal.NewFromInt(50),
		OwnerID: "owner", FileURL: "https://files.example/doc-1.pdf",
	}
	docs.On("FindByID", mock.Anything, "doc-1").Return(doc, nil)
	wallets.On("FindByUserID", mock.Anything, mock.Anything).Return(&model.Wallet{Balance: decimal.NewFromInt(200)}, nil)
	// The caller goes away right after the transfer commits.
	wallets.On("Transfer", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(&repository.TransferResult{}, nil)
	docs.On("ClaimPasskey", mock.Anything, "doc-1", "buyer").Run(func(args mock.Arguments) {
		assert.NoError(t, args.Get(0).(context.Context).Err())
	}).Return("key0000001", nil)
	accessLog.On("RecordDownload", mock.Anything, "buyer", "doc-1", mock.Anything).Return(&model.DownloadedDoc{ID: "dl"}, nil)
	accessLog.On("RecordActivity", mock.Anything, mock.Anything).Return(&model.Activity{ID: "a1"}, nil)

	svc := NewAccessService(Deps{Documents: docs, Wallets: wallets, AccessLog: accessLog})
	res, err := svc.BuyDocument(ctx, "buyer", "doc-1")
	require.NoError(t, err)
	assert.False(t, res.Degraded())
	accessLog.AssertExpectations(t)
}

func TestAccessService_DownloadFree(t *testing.T) {
	ctx := context.Background()

	t.Run("free document", func(t *testing.T) {
		f := newMarket(t, 200, 0)
		res, err := f.svc.DownloadFree(ctx, "buyer", "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "https://files.example/documents/doc-1.pdf", res.FileURL)
		assert.Nil(t, res.UsedKey)
		assert.False(t, res.Committed)

		downloads, _ := f.store.ListDownloads(ctx, "buyer")
		require.Len(t, downloads, 1)
		assert.Nil(t, downloads[0].UsedKey)
		assert.True(t, decimal.NewFromInt(200).Equal(f.balance(t, "buyer")))
		assert.Equal(t, 1.0, f.grants(KindFreeDownload, OutcomeGranted))
	})

	t.Run("repeated downloads append rows", func(t *testing.T) {
		f := newMarket(t, 200, 0)
		for i := 0; i < 3; i++ {
			_, err := f.svc.DownloadFree(ctx, "buyer", "doc-1")
			require.NoError(t, err)
		}
		downloads, _ := f.store.ListDownloads(ctx, "buyer")
		assert.Len(t, downloads, 3)
	})

	t.Run("paid document", func(t *testing.T) {
		f := newMarket(t, 200, 50)
		_, err := f.svc.DownloadFree(ctx, "buyer", "doc-1")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		downloads, _ := f.store.ListDownloads(ctx, "buyer")
		assert.Empty(t, downloads)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newMarket(t, 200, 0)
		_, err := f.svc.DownloadFree(ctx, "buyer", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing file url", func(t *testing.T) {
		docs := new(repoMocks.MockDocumentRepository)
		docs.On("FindByID", mock.Anything, "doc-1").Return(&model.Document{ID: "doc-1", AccessType: model.AccessFree}, nil)
		svc := NewAccessService(Deps{Documents: docs, AccessLog: new(repoMocks.MockAccessLogRepository)})
		_, err := svc.DownloadFree(ctx, "buyer", "doc-1")
		assert.ErrorIs(t, err, ErrMissingAsset)
	})
}

func TestAccessService_Upvote(t *testing.T) {
	ctx := context.Background()
	f := newMarket(t, 200, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Upvote(ctx, fmt.Sprintf("user-%d", i), "doc-1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc, _ := f.store.FindByID(ctx, "doc-1")
	assert.Equal(t, int64(10), doc.Upvotes)
	assert.Equal(t, 10.0, f.grants(KindUpvote, OutcomeGranted))

	acts, _ := f.store.ListActivities(ctx, "user-3", 10)
	require.Len(t, acts, 1)
	assert.Equal(t, model.ActivityUpvote, acts[0].Type)

	_, err := f.svc.Upvote(ctx, "buyer", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccessService_Downloads(t *testing.T) {
	ctx := context.Background()
	f := newMarket(t, 200, 50)

	_, err := f.svc.BuyDocument(ctx, "buyer", "doc-1")
	require.NoError(t, err)
	_, err = f.store.RecordDownload(ctx, "buyer", "gone", nil)
	require.NoError(t, err)

	items, err := f.svc.Downloads(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byDoc := map[string]DownloadedDocument{}
	for _, it := range items {
		byDoc[it.DocumentID] = it
	}
	require.NotNil(t, byDoc["doc-1"].Document)
	assert.Nil(t, byDoc["doc-1"].Document.Passkeys)
	assert.NotNil(t, byDoc["doc-1"].UsedKey)
	assert.Nil(t, byDoc["gone"].Document)

	_, err = f.svc.Downloads(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccessService_Activities(t *testing.T) {
	ctx := context.Background()
	accessLog := new(repoMocks.MockAccessLogRepository)
	accessLog.On("ListActivities", mock.Anything, "u1", 20).Return([]model.Activity{{ID: "a1"}}, nil).Twice()
	accessLog.On("ListActivities", mock.Anything, "u1", 5).Return([]model.Activity{}, nil).Once()

	svc := NewAccessService(Deps{AccessLog: accessLog})

	items, err := svc.Activities(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	_, err = svc.Activities(ctx, "u1", 1000)
	require.NoError(t, err)
	_, err = svc.Activities(ctx, "u1", 5)
	require.NoError(t, err)

	accessLog.AssertExpectations(t)
}
