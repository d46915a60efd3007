package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pgrepo "github.com/hackura/cybershelf/internal/repo/postgres"
	downloadsvc "github.com/hackura/cybershelf/internal/services/downloads"
	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
)

const testWebhookSecret = "sk_test_handler"

// fakeStore backs every purchase-shaped interface the handlers exercise.
type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]pgrepo.PurchaseRecord
	books map[string]pgrepo.BookRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows: make(map[string]pgrepo.PurchaseRecord),
		books: map[string]pgrepo.BookRecord{
			"book-1": {ID: "book-1", Title: "Practical Binary Analysis", Price: decimal.RequireFromString("25.00"), FileKey: "books/book-1.pdf"},
			"book-2": {ID: "book-2", Title: "Web Hacking Notes", Price: decimal.RequireFromString("10.50"), FileKey: "books/book-2.pdf"},
		},
	}
}

func (s *fakeStore) Insert(_ context.Context, rec pgrepo.PurchaseRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.ProviderReference + "|" + rec.BookID
	if _, exists := s.rows[key]; exists {
		return false, nil
	}
	if book, ok := s.books[rec.BookID]; ok {
		rec.BookTitle = book.Title
		rec.FileKey = book.FileKey
	}
	rec.CreatedAt = time.Now().UTC()
	s.rows[key] = rec
	return true, nil
}

func (s *fakeStore) ListByBuyer(_ context.Context, buyerID string) ([]pgrepo.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pgrepo.PurchaseRecord
	for _, rec := range s.rows {
		if rec.BuyerID == buyerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByReference(_ context.Context, reference string) ([]pgrepo.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pgrepo.PurchaseRecord
	for _, rec := range s.rows {
		if rec.ProviderReference == reference {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, pgrepo.ErrPurchaseNotFound
	}
	return out, nil
}

func (s *fakeStore) HasPurchase(_ context.Context, buyerID, bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.rows {
		if rec.BuyerID == buyerID && rec.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetBook(_ context.Context, bookID string) (pgrepo.BookRecord, error) {
	book, ok := s.books[bookID]
	if !ok {
		return pgrepo.BookRecord{}, pgrepo.ErrBookNotFound
	}
	return book, nil
}

func (s *fakeStore) GetDiscount(_ context.Context, _ string) (pgrepo.DiscountRecord, error) {
	return pgrepo.DiscountRecord{}, pgrepo.ErrDiscountNotFound
}

type fakeStorage struct{}

func (fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	return "https://storage.local/" + key + "?signed=1", nil
}

type handlerFixture struct {
	store     *fakeStore
	paystack  *paymentsvc.PaystackAdapter
	paypal    *paymentsvc.PayPalAdapter
	recorder  *purchasesvc.Service
	downloads *downloadsvc.Service
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := newFakeStore()

	paystack, err := paymentsvc.NewPaystackAdapter(testWebhookSecret)
	if err != nil {
		t.Fatalf("create paystack adapter: %v", err)
	}

	issuer, err := downloadsvc.NewTokenIssuer("dl-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("create token issuer: %v", err)
	}

	return &handlerFixture{
		store:    store,
		paystack: paystack,
		paypal:   paymentsvc.NewPayPalAdapter(store, store),
		recorder: purchasesvc.NewService(purchasesvc.Dependencies{
			Purchases: store,
			Books:     store,
			Discounts: store,
		}),
		downloads: downloadsvc.NewService(downloadsvc.Dependencies{
			Purchases: store,
			Books:     store,
			Storage:   fakeStorage{},
			Tokens:    issuer,
		}, 24*time.Hour),
	}
}

func signWebhookBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
