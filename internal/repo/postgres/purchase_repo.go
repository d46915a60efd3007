package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

type PurchaseRecord struct {
	ID                string
	BuyerID           string
	BookID            string
	BookTitle         string
	FileKey           string
	Provider          string
	ProviderReference string
	FinalPrice        decimal.Decimal
	DiscountCode      *string
	CreatedAt         time.Time
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Insert writes one purchase row. A conflicting (provider_reference, book_id)
// pair is not an error: the row already exists and created=false is returned.
// This is what makes webhook replays and double submissions harmless.
func (r *PurchaseRepo) Insert(ctx context.Context, rec PurchaseRecord) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if rec.ID == "" || rec.BuyerID == "" || rec.BookID == "" || rec.ProviderReference == "" {
		return false, fmt.Errorf("invalid purchase insert payload")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO purchases (
	id,
	buyer_id,
	book_id,
	provider,
	provider_reference,
	final_price,
	discount_code,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (provider_reference, book_id) DO NOTHING
`,
		rec.ID,
		rec.BuyerID,
		rec.BookID,
		strings.ToLower(strings.TrimSpace(rec.Provider)),
		strings.TrimSpace(rec.ProviderReference),
		rec.FinalPrice,
		rec.DiscountCode,
	)
	if err != nil {
		return false, fmt.Errorf("insert purchase: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// FindByReference returns every purchase row recorded under one provider
// reference, joined to the book's title and file key.
func (r *PurchaseRepo) FindByReference(ctx context.Context, reference string) ([]PurchaseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("provider reference is required")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	p.id,
	p.buyer_id,
	p.book_id,
	b.title,
	b.file_key,
	p.provider,
	p.provider_reference,
	p.final_price,
	p.discount_code,
	p.created_at
FROM purchases p
JOIN books b ON b.id = p.book_id
WHERE p.provider_reference = $1
ORDER BY p.created_at, p.book_id
`, reference)
	if err != nil {
		return nil, fmt.Errorf("find purchases by reference: %w", err)
	}
	defer rows.Close()

	records, err := scanPurchases(rows)
	if err != nil {
		return nil, fmt.Errorf("scan purchases by reference: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrPurchaseNotFound
	}

	return records, nil
}

func (r *PurchaseRepo) HasPurchase(ctx context.Context, buyerID, bookID string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(buyerID) == "" || strings.TrimSpace(bookID) == "" {
		return false, fmt.Errorf("invalid entitlement lookup payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM purchases WHERE buyer_id = $1 AND book_id = $2
)
`, buyerID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check entitlement: %w", err)
	}

	return exists, nil
}

func (r *PurchaseRepo) ListByBuyer(ctx context.Context, buyerID string) ([]PurchaseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(buyerID) == "" {
		return nil, fmt.Errorf("buyer id is required")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	p.id,
	p.buyer_id,
	p.book_id,
	b.title,
	b.file_key,
	p.provider,
	p.provider_reference,
	p.final_price,
	p.discount_code,
	p.created_at
FROM purchases p
JOIN books b ON b.id = p.book_id
WHERE p.buyer_id = $1
ORDER BY p.created_at DESC
`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases by buyer: %w", err)
	}
	defer rows.Close()

	records, err := scanPurchases(rows)
	if err != nil {
		return nil, fmt.Errorf("scan purchases by buyer: %w", err)
	}

	return records, nil
}

func scanPurchases(rows pgx.Rows) ([]PurchaseRecord, error) {
	var records []PurchaseRecord
	for rows.Next() {
		var rec PurchaseRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.BuyerID,
			&rec.BookID,
			&rec.BookTitle,
			&rec.FileKey,
			&rec.Provider,
			&rec.ProviderReference,
			&rec.FinalPrice,
			&rec.DiscountCode,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
