package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"docspot/internal/model"
	"docspot/internal/repository"
)

// Store keeps documents, wallets and the access log in process memory.
// Every method takes the single mutex, so each call is atomic with respect to the others.
type Store struct {
	mu sync.RWMutex

	// Document storage
	documents map[string]*model.Document

	// Wallet storage
	wallets map[string]*model.Wallet

	// Access log
	downloads  []model.DownloadedDoc
	activities []model.Activity

	now func() time.Time
}

var (
	_ repository.DocumentRepository  = (*Store)(nil)
	_ repository.WalletRepository    = (*Store)(nil)
	_ repository.AccessLogRepository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		documents:  make(map[string]*model.Document),
		wallets:    make(map[string]*model.Wallet),
		downloads:  make([]model.DownloadedDoc, 0),
		activities: make([]model.Activity, 0),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Document Store implementation
func (s *Store) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return nil, repository.ErrAlreadyExists
	}
	stored := cloneDocument(doc)
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	for i := range stored.Passkeys {
		stored.Passkeys[i].IsUsed = false
		stored.Passkeys[i].UsedBy = nil
	}
	s.documents[stored.ID] = stored
	return cloneDocument(stored), nil
}

func (s *Store) FindByID(_ context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.documents[id]; ok {
		return cloneDocument(d), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Document, 0)
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			result = append(result, *cloneDocument(d))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *Store) ListExcludingOwner(_ context.Context, ownerID string, filter repository.ListFilter) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]model.Document, 0)
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			continue
		}
		if q != "" && !matches(d, q) {
			continue
		}
		doc := cloneDocument(d)
		doc.Passkeys = nil
		result = append(result, *doc)
	}
	sortNewestFirst(result)

	// Apply limit/offset
	if filter.Limit <= 0 {
		return result, nil
	}
	start := filter.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + filter.Limit
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (s *Store) IncrementUpvote(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	d.Upvotes++
	return d.Upvotes, nil
}

func (s *Store) ClaimPasskey(_ context.Context, documentID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[documentID]
	if !ok {
		return "", repository.ErrNotFound
	}
	for i := range d.Passkeys {
		if d.Passkeys[i].IsUsed {
			continue
		}
		user := userID
		d.Passkeys[i].IsUsed = true
		d.Passkeys[i].UsedBy = &user
		return d.Passkeys[i].Key, nil
	}
	return "", repository.ErrPasskeysExhausted
}

// Wallet Store implementation
func (s *Store) CreateWallet(_ context.Context, userID string, startingBalance decimal.Decimal) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[userID]; exists {
		return nil, repository.ErrAlreadyExists
	}
	w := &model.Wallet{
		UserID:          userID,
		Balance:         startingBalance,
		StartingBalance: startingBalance,
		Transactions:    []model.Transaction{},
		CreatedAt:       s.now(),
	}
	s.wallets[userID] = w
	return cloneWallet(w), nil
}

func (s *Store) FindByUserID(_ context.Context, userID string) (*model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[userID]; ok {
		return cloneWallet(w), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) Transfer(_ context.Context, in repository.TransferInput) (*repository.TransferResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, okFrom := s.wallets[in.From]
	to, okTo := s.wallets[in.To]
	if !okFrom || !okTo {
		return nil, repository.ErrNotFound
	}
	if from.Balance.LessThan(in.Amount) {
		return nil, repository.ErrInsufficientBalance
	}

	now := s.now()
	from.Balance = from.Balance.Sub(in.Amount)
	to.Balance = to.Balance.Add(in.Amount)
	from.Transactions = append(from.Transactions, model.Transaction{
		ID:          uuid.NewString(),
		Type:        model.TransactionDebit,
		Amount:      in.Amount,
		Description: in.DebitDescription,
		DocumentID:  in.DocumentID,
		CreatedAt:   now,
	})
	to.Transactions = append(to.Transactions, model.Transaction{
		ID:          uuid.NewString(),
		Type:        model.TransactionCredit,
		Amount:      in.Amount,
		Description: in.CreditDescription,
		DocumentID:  in.DocumentID,
		CreatedAt:   now,
	})
	return &repository.TransferResult{FromBalance: from.Balance, ToBalance: to.Balance}, nil
}

// Access log Store implementation
func (s *Store) RecordDownload(_ context.Context, userID, documentID string, usedKey *string) (*model.DownloadedDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := model.DownloadedDoc{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentID:   documentID,
		UsedKey:      cloneString(usedKey),
		DownloadedAt: s.now(),
	}
	s.downloads = append(s.downloads, d)
	out := d
	out.UsedKey = cloneString(d.UsedKey)
	return &out, nil
}

func (s *Store) RecordActivity(_ context.Context, a *model.Activity) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *a
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = s.now()
	}
	s.activities = append(s.activities, out)
	return &out, nil
}

func (s *Store) ListDownloads(_ context.Context, userID string) ([]model.DownloadedDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.DownloadedDoc, 0)
	for i := len(s.downloads) - 1; i >= 0; i-- {
		d := s.downloads[i]
		if d.UserID == userID {
			d.UsedKey = cloneString(d.UsedKey)
			result = append(result, d)
		}
	}
	return result, nil
}

func (s *Store) ListActivities(_ context.Context, userID string, limit int) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Activity, 0)
	for i := len(s.activities) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		if s.activities[i].UserID == userID {
			result = append(result, s.activities[i])
		}
	}
	return result, nil
}

func (s *Store) PurchaseMismatches(_ context.Context) ([]model.PurchaseMismatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type pair struct{ user, doc string }
	debits := make(map[pair]int)
	for _, w := range s.wallets {
		for _, t := range w.Transactions {
			if t.Type != model.TransactionDebit || t.DocumentID == "" {
				continue
			}
			if !strings.HasPrefix(t.Description, repository.PurchaseDescriptionPrefix) {
				continue
			}
			debits[pair{w.UserID, t.DocumentID}]++
		}
	}
	downloads := make(map[pair]int)
	for _, d := range s.downloads {
		downloads[pair{d.UserID, d.DocumentID}]++
	}

	result := make([]model.PurchaseMismatch, 0)
	for p, n := range debits {
		if n > downloads[p] {
			result = append(result, model.PurchaseMismatch{
				UserID:     p.user,
				DocumentID: p.doc,
				Debits:     n,
				Downloads:  downloads[p],
			})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UserID != result[j].UserID {
			return result[i].UserID < result[j].UserID
		}
		return result[i].DocumentID < result[j].DocumentID
	})
	return result, nil
}

func matches(d *model.Document, q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) {
		return true
	}
	for _, t := range d.Tags {
		if t == q {
			return true
		}
	}
	return false
}

func sortNewestFirst(docs []model.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}

func cloneDocument(d *model.Document) *model.Document {
	out := *d
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.Passkeys != nil {
		out.Passkeys = make([]model.Passkey, len(d.Passkeys))
		for i, pk := range d.Passkeys {
			out.Passkeys[i] = model.Passkey{Key: pk.Key, IsUsed: pk.IsUsed, UsedBy: cloneString(pk.UsedBy)}
		}
	}
	return &out
}

func cloneWallet(w *model.Wallet) *model.Wallet {
	out := *w
	out.Transactions = append([]model.Transaction{}, w.Transactions...)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
