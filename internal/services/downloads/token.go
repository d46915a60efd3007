package downloads

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenSignature = errors.New("download token signature invalid")
	ErrTokenExpired   = errors.New("download token expired")
)

const DefaultTokenTTL = 24 * time.Hour

// TokenIssuer mints bearer download tokens: a signed claim binding one book
// id to an expiry. Verification is stateless; validity is fully determined by
// the signature and the clock. The issuer does not check entitlement — the
// call site does that before minting.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type downloadClaims struct {
	BookID string `json:"book_id"`
	jwt.RegisteredClaims
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("download token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) Issue(bookID string) (string, time.Time, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return "", time.Time{}, fmt.Errorf("book id is required")
	}

	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := downloadClaims{
		BookID: bookID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify returns the book id and expiry of a valid token. A correctly signed
// but expired token is rejected with ErrTokenExpired; everything else wrong
// with the token is ErrTokenSignature.
func (i *TokenIssuer) Verify(raw string) (string, time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return "", time.Time{}, ErrTokenSignature
	}

	claims := &downloadClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(func() time.Time {
		return i.now()
	}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, ErrTokenExpired
		}
		return "", time.Time{}, ErrTokenSignature
	}
	if token == nil || !token.Valid {
		return "", time.Time{}, ErrTokenSignature
	}

	bookID := strings.TrimSpace(claims.BookID)
	if bookID == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, ErrTokenSignature
	}

	return bookID, claims.ExpiresAt.Time, nil
}
