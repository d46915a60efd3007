package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hackura/cybershelf/internal/domain/enums"
)

// Purchase is one buyer's entitlement to one book. Rows are created exactly
// once per (provider_reference, book_id) pair and never updated.
type Purchase struct {
	ID                string
	BuyerID           string
	BookID            string
	Provider          enums.Provider
	ProviderReference string
	FinalPrice        decimal.Decimal
	DiscountCode      *string
	CreatedAt         time.Time
}
