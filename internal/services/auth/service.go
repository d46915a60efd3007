package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinRefreshTTL = 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	RoleBuyer = "BUYER"
	RoleAdmin = "ADMIN"
)

// IdentityVerifier checks an assertion minted by the external identity
// provider. The provider itself (user records, password flows) lives outside
// this service.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (VerifiedIdentity, error)
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForBuyer(ctx context.Context, buyerID string) error
}

type Service struct {
	jwt        *JWTManager
	verifier   IdentityVerifier
	sessions   SessionStore
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, verifier IdentityVerifier, sessions SessionStore, refreshTTL time.Duration) *Service {
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}

	return &Service{
		jwt:        jwtManager,
		verifier:   verifier,
		sessions:   sessions,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login exchanges an identity-provider assertion for a session.
func (s *Service) Login(ctx context.Context, assertion string) (AuthResult, error) {
	if strings.TrimSpace(assertion) == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.verifier == nil {
		return AuthResult{}, fmt.Errorf("identity verifier is not configured")
	}

	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}
	if strings.TrimSpace(identity.BuyerID) == "" {
		return AuthResult{}, ErrUnauthorized
	}
	role := identity.Role
	if role == "" {
		role = RoleBuyer
	}

	return s.issueForBuyer(ctx, identity.BuyerID, identity.Email, role)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.BuyerID, "", session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:   session.BuyerID,
			Role: session.Role,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, buyerID string) error {
	if strings.TrimSpace(buyerID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForBuyer(ctx, buyerID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, string, error) {
	claims, email, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, "", ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, "", ErrUnauthorized
		}
		return AccessClaims{}, "", fmt.Errorf("get session: %w", err)
	}

	if session.BuyerID != claims.BuyerID || session.Role != claims.Role {
		return AccessClaims{}, "", ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, "", ErrUnauthorized
	}

	return claims, email, nil
}

func (s *Service) issueForBuyer(ctx context.Context, buyerID, email, role string) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.Create(ctx, SessionRecord{
		SID:       sessionID,
		BuyerID:   buyerID,
		Role:      role,
		ExpiresAt: expiresAt,
	}, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(buyerID, email, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:    buyerID,
			Email: email,
			Role:  role,
		},
	}, nil
}
