package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hackura/cybershelf/internal/domain/model"
	pgrepo "github.com/hackura/cybershelf/internal/repo/postgres"
	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnknownItem  = errors.New("unknown item in payment event")
	ErrStoreFailure = errors.New("purchase store unavailable")
)

type PurchaseStore interface {
	Insert(ctx context.Context, rec pgrepo.PurchaseRecord) (bool, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]pgrepo.PurchaseRecord, error)
}

type BookStore interface {
	GetBook(ctx context.Context, bookID string) (pgrepo.BookRecord, error)
}

type DiscountStore interface {
	GetDiscount(ctx context.Context, code string) (pgrepo.DiscountRecord, error)
}

// ReceiptMailer delivers the post-purchase receipt. Dispatch is best effort;
// a mailer failure never fails the recording.
type ReceiptMailer interface {
	SendReceipt(ctx context.Context, to string, receipt Receipt) error
}

type Service struct {
	purchases PurchaseStore
	books     BookStore
	discounts DiscountStore
	mailer    ReceiptMailer
	logger    *zap.Logger
	now       func() time.Time

	// receipts dispatched in background; tests wait on this
	receiptWG sync.WaitGroup
}

type Dependencies struct {
	Purchases PurchaseStore
	Books     BookStore
	Discounts DiscountStore
	Mailer    ReceiptMailer
	Logger    *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		purchases: deps.Purchases,
		books:     deps.Books,
		discounts: deps.Discounts,
		mailer:    deps.Mailer,
		logger:    logger,
		now:       time.Now,
	}
}

// ItemOutcome is the tagged per-item result of recording: the row was either
// created by this call or already present from an earlier delivery of the
// same provider reference. already_existed is a success, not an error.
type ItemOutcome struct {
	BookID     string
	Title      string
	FinalPrice decimal.Decimal
	Created    bool
}

type RecordResult struct {
	Reference string
	Items     []ItemOutcome
}

func (r RecordResult) AlreadyRecorded() int {
	n := 0
	for _, item := range r.Items {
		if !item.Created {
			n++
		}
	}
	return n
}

type Receipt struct {
	Reference string
	Items     []ItemOutcome
	Total     decimal.Decimal
	IssuedAt  time.Time
}

// Record turns a verified payment event into durable entitlement rows,
// exactly once per (provider reference, book) pair. Per-item inserts have no
// ordering dependency and run in parallel; the unique index arbitrates races.
func (s *Service) Record(ctx context.Context, event paymentsvc.ConfirmedEvent) (RecordResult, error) {
	if s.purchases == nil || s.books == nil {
		return RecordResult{}, fmt.Errorf("purchase recorder dependencies are not configured")
	}
	if strings.TrimSpace(event.Reference) == "" || strings.TrimSpace(event.BuyerID) == "" || len(event.Items) == 0 {
		return RecordResult{}, ErrValidation
	}

	discount, discountCode, err := s.resolveDiscount(ctx, event.DiscountCode)
	if err != nil {
		return RecordResult{}, err
	}

	items := dedupeItems(event.Items)
	outcomes := make([]ItemOutcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			book, err := s.books.GetBook(gctx, item.BookID)
			if err != nil {
				if errors.Is(err, pgrepo.ErrBookNotFound) {
					return fmt.Errorf("%w: %s", ErrUnknownItem, item.BookID)
				}
				return fmt.Errorf("resolve book %s: %w", item.BookID, err)
			}

			finalPrice := discount.Apply(book.Price)
			created, err := s.purchases.Insert(gctx, pgrepo.PurchaseRecord{
				ID:                uuid.NewString(),
				BuyerID:           event.BuyerID,
				BookID:            book.ID,
				Provider:          event.Provider.String(),
				ProviderReference: event.Reference,
				FinalPrice:        finalPrice,
				DiscountCode:      discountCode,
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStoreFailure, err)
			}

			title := item.Title
			if title == "" {
				title = book.Title
			}
			outcomes[i] = ItemOutcome{
				BookID:     book.ID,
				Title:      title,
				FinalPrice: finalPrice,
				Created:    created,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return RecordResult{}, err
	}

	result := RecordResult{Reference: event.Reference, Items: outcomes}

	s.logger.Info("purchase recorded",
		zap.String("provider", event.Provider.String()),
		zap.String("reference", event.Reference),
		zap.Int("items", len(outcomes)),
		zap.Int("already_recorded", result.AlreadyRecorded()),
	)

	s.dispatchReceipt(ctx, event, result)

	return result, nil
}

// Library lists the buyer's entitlements for display: one entry per purchase
// row, joined to the book title.
type LibraryItem struct {
	BookID      string
	Title       string
	Reference   string
	FinalPrice  decimal.Decimal
	PurchasedAt time.Time
}

func (s *Service) Library(ctx context.Context, buyerID string) ([]LibraryItem, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, ErrValidation
	}
	if s.purchases == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}

	records, err := s.purchases.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list buyer purchases: %w", err)
	}

	items := make([]LibraryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, LibraryItem{
			BookID:      rec.BookID,
			Title:       rec.BookTitle,
			Reference:   rec.ProviderReference,
			FinalPrice:  rec.FinalPrice,
			PurchasedAt: rec.CreatedAt,
		})
	}

	return items, nil
}

// WaitReceipts blocks until in-flight receipt dispatches finish. Test hook.
func (s *Service) WaitReceipts() {
	s.receiptWG.Wait()
}

func (s *Service) dispatchReceipt(ctx context.Context, event paymentsvc.ConfirmedEvent, result RecordResult) {
	if s.mailer == nil || event.BuyerEmail == "" {
		return
	}
	if result.AlreadyRecorded() == len(result.Items) {
		// replayed delivery, receipt already went out
		return
	}

	receipt := Receipt{
		Reference: result.Reference,
		Items:     result.Items,
		Total:     event.AmountCharged,
		IssuedAt:  s.now().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	s.receiptWG.Add(1)
	go func() {
		defer s.receiptWG.Done()
		if err := s.mailer.SendReceipt(detached, event.BuyerEmail, receipt); err != nil {
			s.logger.Warn("receipt dispatch failed",
				zap.String("reference", receipt.Reference),
				zap.Error(err),
			)
		}
	}()
}

func (s *Service) resolveDiscount(ctx context.Context, code string) (model.Discount, *string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || s.discounts == nil {
		return model.Discount{}, nil, nil
	}

	rec, err := s.discounts.GetDiscount(ctx, code)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDiscountNotFound) {
			// unknown code on a confirmed payment: record at list price
			s.logger.Warn("discount code not found, recording at list price", zap.String("code", code))
			return model.Discount{}, nil, nil
		}
		return model.Discount{}, nil, fmt.Errorf("resolve discount code: %w", err)
	}

	discount := model.Discount{
		Code:       rec.Code,
		PercentOff: rec.PercentOff,
		Active:     rec.Active,
		ExpiresAt:  rec.ExpiresAt,
	}
	if !discount.Usable(s.now().UTC()) {
		return model.Discount{}, nil, nil
	}

	return discount, &discount.Code, nil
}

func dedupeItems(items []paymentsvc.CartItem) []paymentsvc.CartItem {
	seen := make(map[string]bool, len(items))
	out := make([]paymentsvc.CartItem, 0, len(items))
	for _, item := range items {
		if seen[item.BookID] {
			continue
		}
		seen[item.BookID] = true
		out = append(out, item)
	}
	return out
}
