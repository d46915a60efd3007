package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/hackura/cybershelf/internal/services/auth"
)

func newSessionRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionRepo(client), mr
}

func testSession(sid, buyerID string) authsvc.SessionRecord {
	return authsvc.SessionRecord{
		SID:       sid,
		BuyerID:   buyerID,
		Role:      authsvc.RoleBuyer,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
}

func TestSessionRepoCreateAndGet(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", "buyer-1"), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	session, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.BuyerID != "buyer-1" || session.Role != authsvc.RoleBuyer {
		t.Fatalf("unexpected session: %+v", session)
	}

	byRefresh, err := repo.GetByRefreshToken(ctx, "refresh-1")
	if err != nil {
		t.Fatalf("get by refresh token: %v", err)
	}
	if byRefresh.SID != "sid-1" || byRefresh.BuyerID != "buyer-1" {
		t.Fatalf("unexpected session by refresh: %+v", byRefresh)
	}
}

func TestSessionRepoGetMissing(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSession(ctx, "nope"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "nope"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestSessionRepoRotateRefresh(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", "buyer-1"), "refresh-old"); err != nil {
		t.Fatalf("create: %v", err)
	}

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-old", "refresh-new", newExpiry); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if _, err := repo.GetByRefreshToken(ctx, "refresh-old"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected old refresh token to be gone, got %v", err)
	}

	session, err := repo.GetByRefreshToken(ctx, "refresh-new")
	if err != nil {
		t.Fatalf("get by new refresh token: %v", err)
	}
	if session.SID != "sid-1" {
		t.Fatalf("unexpected session after rotate: %+v", session)
	}
}

func TestSessionRepoRotateRefreshWrongSID(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", "buyer-1"), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.RotateRefresh(ctx, "sid-other", "refresh-1", "refresh-2", time.Now().Add(time.Hour))
	if !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestSessionRepoDeleteSession(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", "buyer-1"), "refresh-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-1"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("expected refresh token to be gone, got %v", err)
	}
}

func TestSessionRepoDeleteAllForBuyer(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testSession("sid-1", "buyer-1"), "refresh-1"); err != nil {
		t.Fatalf("create sid-1: %v", err)
	}
	if err := repo.Create(ctx, testSession("sid-2", "buyer-1"), "refresh-2"); err != nil {
		t.Fatalf("create sid-2: %v", err)
	}
	if err := repo.Create(ctx, testSession("sid-3", "buyer-2"), "refresh-3"); err != nil {
		t.Fatalf("create sid-3: %v", err)
	}

	if err := repo.DeleteAllForBuyer(ctx, "buyer-1"); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	for _, sid := range []string{"sid-1", "sid-2"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("expected %s to be gone, got %v", sid, err)
		}
	}
	if _, err := repo.GetSession(ctx, "sid-3"); err != nil {
		t.Fatalf("expected buyer-2 session to survive, got %v", err)
	}
}
