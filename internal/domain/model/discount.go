package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Discount struct {
	Code       string
	PercentOff int
	Active     bool
	ExpiresAt  *time.Time
}

func (d Discount) Usable(at time.Time) bool {
	if !d.Active || d.PercentOff <= 0 || d.PercentOff > 100 {
		return false
	}
	if d.ExpiresAt != nil && !d.ExpiresAt.After(at) {
		return false
	}
	return true
}

// Apply returns the price after the percent discount, rounded to cents.
func (d Discount) Apply(price decimal.Decimal) decimal.Decimal {
	if d.PercentOff <= 0 || d.PercentOff > 100 {
		return price
	}
	factor := decimal.NewFromInt(int64(100 - d.PercentOff)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}
