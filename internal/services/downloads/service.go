package downloads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/hackura/cybershelf/internal/repo/postgres"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrFileMissing      = errors.New("purchased item has no file on record")
	ErrNotEntitled      = errors.New("buyer has no purchase for this book")
)

const DefaultURLTTL = 24 * time.Hour

type PurchaseStore interface {
	FindByReference(ctx context.Context, reference string) ([]pgrepo.PurchaseRecord, error)
	HasPurchase(ctx context.Context, buyerID, bookID string) (bool, error)
}

type BookStore interface {
	GetBook(ctx context.Context, bookID string) (pgrepo.BookRecord, error)
}

// Service resolves download requests into short-lived signed storage URLs.
// Each resolution is independent and repeatable; nothing is consumed.
type Service struct {
	purchases PurchaseStore
	books     BookStore
	storage   ObjectStorage
	tokens    *TokenIssuer
	urlTTL    time.Duration
	now       func() time.Time
}

type Dependencies struct {
	Purchases PurchaseStore
	Books     BookStore
	Storage   ObjectStorage
	Tokens    *TokenIssuer
}

func NewService(deps Dependencies, urlTTL time.Duration) *Service {
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}

	return &Service{
		purchases: deps.Purchases,
		books:     deps.Books,
		storage:   deps.Storage,
		tokens:    deps.Tokens,
		urlTTL:    urlTTL,
		now:       time.Now,
	}
}

type Link struct {
	BookID    string
	Title     string
	URL       string
	ExpiresAt time.Time
}

// ResolveByReference serves the post-checkout path, before any token exists:
// look up the purchase rows under the provider reference and sign a URL for
// each purchased file. A reference with no rows is purchase_not_found; a row
// whose book has no file is an integrity fault, surfaced distinctly.
func (s *Service) ResolveByReference(ctx context.Context, reference string) ([]Link, error) {
	if s.purchases == nil || s.storage == nil {
		return nil, fmt.Errorf("download resolver dependencies are not configured")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrPurchaseNotFound
	}

	records, err := s.purchases.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("find purchases by reference: %w", err)
	}

	links := make([]Link, 0, len(records))
	for _, rec := range records {
		if rec.FileKey == "" {
			return nil, fmt.Errorf("%w: book %s", ErrFileMissing, rec.BookID)
		}

		url, err := s.storage.PresignGet(ctx, rec.FileKey, s.urlTTL)
		if err != nil {
			return nil, fmt.Errorf("presign download url: %w", err)
		}

		links = append(links, Link{
			BookID:    rec.BookID,
			Title:     rec.BookTitle,
			URL:       url,
			ExpiresAt: s.now().UTC().Add(s.urlTTL),
		})
	}

	return links, nil
}

// ResolveByToken verifies the bearer credential and signs a URL for the book
// it names. The token itself is the authorization; no purchase-row join is
// needed. The URL's validity never outlives the token's.
func (s *Service) ResolveByToken(ctx context.Context, rawToken string) (Link, error) {
	if s.tokens == nil || s.books == nil || s.storage == nil {
		return Link{}, fmt.Errorf("download resolver dependencies are not configured")
	}

	bookID, tokenExpiry, err := s.tokens.Verify(rawToken)
	if err != nil {
		return Link{}, err
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookNotFound) {
			// token authorized a book the catalog no longer resolves
			return Link{}, fmt.Errorf("%w: book %s", ErrFileMissing, bookID)
		}
		return Link{}, fmt.Errorf("resolve book for token: %w", err)
	}
	if book.FileKey == "" {
		return Link{}, fmt.Errorf("%w: book %s", ErrFileMissing, bookID)
	}

	ttl := s.urlTTL
	if remaining := tokenExpiry.Sub(s.now()); remaining < ttl {
		ttl = remaining
	}

	url, err := s.storage.PresignGet(ctx, book.FileKey, ttl)
	if err != nil {
		return Link{}, fmt.Errorf("presign download url: %w", err)
	}

	return Link{
		BookID:    book.ID,
		Title:     book.Title,
		URL:       url,
		ExpiresAt: s.now().UTC().Add(ttl),
	}, nil
}

// IssueToken mints a download token after confirming the buyer actually owns
// the book. This is the entitlement check the issuer itself does not repeat.
func (s *Service) IssueToken(ctx context.Context, buyerID, bookID string) (string, time.Time, error) {
	if s.tokens == nil || s.purchases == nil {
		return "", time.Time{}, fmt.Errorf("download resolver dependencies are not configured")
	}
	if strings.TrimSpace(buyerID) == "" || strings.TrimSpace(bookID) == "" {
		return "", time.Time{}, ErrNotEntitled
	}

	owned, err := s.purchases.HasPurchase(ctx, buyerID, bookID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("check entitlement: %w", err)
	}
	if !owned {
		return "", time.Time{}, ErrNotEntitled
	}

	return s.tokens.Issue(bookID)
}
