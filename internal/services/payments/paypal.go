package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hackura/cybershelf/internal/domain/enums"
	"github.com/hackura/cybershelf/internal/domain/model"
	pgrepo "github.com/hackura/cybershelf/internal/repo/postgres"
)

type BookStore interface {
	GetBook(ctx context.Context, bookID string) (pgrepo.BookRecord, error)
}

type DiscountStore interface {
	GetDiscount(ctx context.Context, code string) (pgrepo.DiscountRecord, error)
}

// PayPalAdapter normalizes a client-SDK order capture into a ConfirmedEvent.
// The capture arrives from the browser session, so the cart is not taken at
// face value: the charged amount is re-verified against the server-held price
// list before any recording happens.
type PayPalAdapter struct {
	books     BookStore
	discounts DiscountStore
	now       func() time.Time
}

func NewPayPalAdapter(books BookStore, discounts DiscountStore) *PayPalAdapter {
	return &PayPalAdapter{
		books:     books,
		discounts: discounts,
		now:       time.Now,
	}
}

type CaptureInput struct {
	OrderID       string
	Items         []CartItem
	AmountCharged decimal.Decimal
	DiscountCode  string
}

// Confirm requires an authenticated buyer. Absence of buyer identity is a
// hard failure before anything else runs.
func (a *PayPalAdapter) Confirm(ctx context.Context, buyerID, buyerEmail string, in CaptureInput) (ConfirmedEvent, error) {
	if strings.TrimSpace(buyerID) == "" {
		return ConfirmedEvent{}, ErrNotAuthenticated
	}
	if a.books == nil {
		return ConfirmedEvent{}, fmt.Errorf("book store is nil")
	}

	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" || len(in.Items) == 0 {
		return ConfirmedEvent{}, ErrMissingMetadata
	}

	items := make([]CartItem, 0, len(in.Items))
	for _, item := range in.Items {
		item.BookID = strings.TrimSpace(item.BookID)
		if item.BookID == "" {
			return ConfirmedEvent{}, ErrMissingMetadata
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		items = append(items, item)
	}

	discount, discountCode, err := a.resolveDiscount(ctx, in.DiscountCode)
	if err != nil {
		return ConfirmedEvent{}, err
	}

	expected := decimal.Zero
	for _, item := range items {
		book, err := a.books.GetBook(ctx, item.BookID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrBookNotFound) {
				return ConfirmedEvent{}, ErrUnknownItem
			}
			return ConfirmedEvent{}, fmt.Errorf("resolve cart item price: %w", err)
		}
		unit := discount.Apply(book.Price)
		expected = expected.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if !expected.Equal(in.AmountCharged) {
		return ConfirmedEvent{}, ErrAmountMismatch
	}

	return ConfirmedEvent{
		Provider:      enums.ProviderPayPal,
		Reference:     orderID,
		BuyerID:       buyerID,
		BuyerEmail:    strings.TrimSpace(buyerEmail),
		Items:         items,
		AmountCharged: in.AmountCharged,
		DiscountCode:  discountCode,
	}, nil
}

func (a *PayPalAdapter) resolveDiscount(ctx context.Context, code string) (model.Discount, string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || a.discounts == nil {
		return model.Discount{}, "", nil
	}

	rec, err := a.discounts.GetDiscount(ctx, code)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDiscountNotFound) {
			return model.Discount{}, "", ErrMissingMetadata
		}
		return model.Discount{}, "", fmt.Errorf("resolve discount code: %w", err)
	}

	discount := model.Discount{
		Code:       rec.Code,
		PercentOff: rec.PercentOff,
		Active:     rec.Active,
		ExpiresAt:  rec.ExpiresAt,
	}
	if !discount.Usable(a.now().UTC()) {
		return model.Discount{}, "", ErrMissingMetadata
	}

	return discount, discount.Code, nil
}
