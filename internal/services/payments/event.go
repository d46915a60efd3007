package payments

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hackura/cybershelf/internal/domain/enums"
)

var (
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrMissingMetadata  = errors.New("webhook metadata missing")
	ErrNotAuthenticated = errors.New("buyer is not authenticated")
	ErrAmountMismatch   = errors.New("charged amount does not match cart total")
	ErrUnknownItem      = errors.New("unknown item in cart")
)

type CartItem struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// ConfirmedEvent is the provider-neutral "payment confirmed" fact both
// adapters produce. It is consumed once by the purchase recorder and then
// discarded; nothing here is persisted as-is.
type ConfirmedEvent struct {
	Provider      enums.Provider
	Reference     string
	BuyerID       string
	BuyerEmail    string
	Items         []CartItem
	AmountCharged decimal.Decimal
	DiscountCode  string
}
