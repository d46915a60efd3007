package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is the catalog record the fulfillment core reads. Catalog management
// owns these rows; this service never writes them.
type Book struct {
	ID        string
	Title     string
	Author    string
	Price     decimal.Decimal
	FileKey   string
	CreatedAt time.Time
}

// HasFile reports whether the book has a resolvable object in storage.
// A purchased book without a file is a data-integrity fault, not a user error.
func (b Book) HasFile() bool {
	return b.FileKey != ""
}
