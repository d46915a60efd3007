package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AssertionVerifier validates signed identity assertions minted by the
// storefront's identity provider. The assertion is a short-lived HS256 JWT
// whose subject is the buyer id.
type AssertionVerifier struct {
	secret []byte
	now    func() time.Time
}

type assertionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewAssertionVerifier(secret string) (*AssertionVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("assertion secret is required")
	}
	return &AssertionVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

func (v *AssertionVerifier) Verify(_ context.Context, assertion string) (VerifiedIdentity, error) {
	if strings.TrimSpace(assertion) == "" {
		return VerifiedIdentity{}, ErrUnauthorized
	}

	claims := &assertionClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(func() time.Time {
		return v.now()
	}))
	if err != nil || token == nil || !token.Valid {
		return VerifiedIdentity{}, ErrUnauthorized
	}

	buyerID := strings.TrimSpace(claims.Subject)
	if buyerID == "" {
		return VerifiedIdentity{}, ErrUnauthorized
	}

	return VerifiedIdentity{
		BuyerID: buyerID,
		Email:   strings.TrimSpace(claims.Email),
		Role:    strings.TrimSpace(claims.Role),
	}, nil
}
