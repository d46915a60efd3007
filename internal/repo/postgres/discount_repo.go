package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDiscountNotFound = errors.New("discount not found")

type DiscountRepo struct {
	pool *pgxpool.Pool
}

type DiscountRecord struct {
	Code       string
	PercentOff int
	Active     bool
	ExpiresAt  *time.Time
}

func NewDiscountRepo(pool *pgxpool.Pool) *DiscountRepo {
	return &DiscountRepo{pool: pool}
}

func (r *DiscountRepo) GetDiscount(ctx context.Context, code string) (DiscountRecord, error) {
	if r.pool == nil {
		return DiscountRecord{}, fmt.Errorf("postgres pool is nil")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DiscountRecord{}, fmt.Errorf("discount code is required")
	}

	var rec DiscountRecord
	err := r.pool.QueryRow(ctx, `
SELECT code, percent_off, active, expires_at
FROM discounts
WHERE code = $1
LIMIT 1
`, code).Scan(
		&rec.Code,
		&rec.PercentOff,
		&rec.Active,
		&rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DiscountRecord{}, ErrDiscountNotFound
		}
		return DiscountRecord{}, fmt.Errorf("get discount: %w", err)
	}

	return rec, nil
}

// DeactivateExpired flips active off for discount codes whose expiry passed
// before the cutoff. Returns the number of rows changed.
func (r *DiscountRepo) DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE discounts
SET active = FALSE
WHERE active = TRUE
  AND expires_at IS NOT NULL
  AND expires_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired discounts: %w", err)
	}

	return tag.RowsAffected(), nil
}
