package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	BuyerID   string
	Role      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	BuyerID   string
	SID       string
	Role      string
	ExpiresAt time.Time
}

type Me struct {
	ID    string
	Email string
	Role  string
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	Me            Me
}

// VerifiedIdentity is what the external identity provider vouches for.
type VerifiedIdentity struct {
	BuyerID string
	Email   string
	Role    string
}
