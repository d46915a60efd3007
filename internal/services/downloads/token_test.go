package downloads

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 0)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}

	token, expiresAt, err := issuer.Issue("book-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if got := time.Until(expiresAt); got < 23*time.Hour || got > 25*time.Hour {
		t.Fatalf("unexpected expiry window: %v", got)
	}

	bookID, expiry, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if bookID != "book-1" {
		t.Fatalf("unexpected book id: %q", bookID)
	}
	if !expiry.Equal(expiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: issued %v verified %v", expiresAt, expiry)
	}
}

func TestTokenVerifyAroundExpiryBoundary(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}

	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issuedAt }

	token, _, err := issuer.Issue("book-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return issuedAt.Add(23*time.Hour + 59*time.Minute) }
	if _, _, err := issuer.Verify(token); err != nil {
		t.Fatalf("token should still verify just before expiry: %v", err)
	}

	issuer.now = func() time.Time { return issuedAt.Add(24*time.Hour + time.Minute) }
	if _, _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenVerifyRejectsTampering(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}

	token, _, err := issuer.Issue("book-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, _, err := issuer.Verify(tampered); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestTokenVerifyRejectsForeignSecret(t *testing.T) {
	issuer, err := NewTokenIssuer("secret-a", time.Hour)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}
	other, err := NewTokenIssuer("secret-b", time.Hour)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}

	token, _, err := other.Issue("book-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := issuer.Verify(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("create issuer: %v", err)
	}

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, _, err := issuer.Verify(raw); !errors.Is(err, ErrTokenSignature) {
			t.Fatalf("expected ErrTokenSignature for %q, got %v", raw, err)
		}
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
