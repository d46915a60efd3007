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

var ErrBookNotFound = errors.New("book not found")

type BookRepo struct {
	pool *pgxpool.Pool
}

type BookRecord struct {
	ID        string
	Title     string
	Author    string
	Price     decimal.Decimal
	FileKey   string
	CreatedAt time.Time
}

func NewBookRepo(pool *pgxpool.Pool) *BookRepo {
	return &BookRepo{pool: pool}
}

func (r *BookRepo) GetBook(ctx context.Context, bookID string) (BookRecord, error) {
	if r.pool == nil {
		return BookRecord{}, fmt.Errorf("postgres pool is nil")
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return BookRecord{}, fmt.Errorf("book id is required")
	}

	var rec BookRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, title, author, price, file_key, created_at
FROM books
WHERE id = $1
LIMIT 1
`, bookID).Scan(
		&rec.ID,
		&rec.Title,
		&rec.Author,
		&rec.Price,
		&rec.FileKey,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BookRecord{}, ErrBookNotFound
		}
		return BookRecord{}, fmt.Errorf("get book: %w", err)
	}

	return rec, nil
}
