package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client), mr
}

func testSession(id, userID string) *domain.Session {
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		Token:     "token-" + id,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := testSession("sess-1", "user-1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", got.UserID)
	}
	if got.Token != session.Token {
		t.Errorf("expected %s, got %s", session.Token, got.Token)
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	if err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_ExpiredNotSaved(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := testSession("sess-expired", "user-1")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, "sess-expired"); err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session := testSession("sess-ttl", "user-1")
	session.ExpiresAt = time.Now().Add(10 * time.Second)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(11 * time.Second)

	if _, err := store.Get(ctx, "sess-ttl"); err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after TTL, got %v", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := testSession("sess-del", "user-1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(ctx, "sess-del"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "sess-del"); err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	// Deleting again is a no-op
	if err := store.Delete(ctx, "sess-del"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSessionStore_DeleteByUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, testSession("sess-"+id, "user-multi")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	other := testSession("sess-other", "user-other")
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("save other: %v", err)
	}

	if err := store.DeleteByUser(ctx, "user-multi"); err != nil {
		t.Fatalf("delete by user: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Get(ctx, "sess-"+id); err != domain.ErrSessionNotFound {
			t.Errorf("sess-%s: expected ErrSessionNotFound, got %v", id, err)
		}
	}

	// Other user untouched
	if _, err := store.Get(ctx, "sess-other"); err != nil {
		t.Errorf("other user session should survive: %v", err)
	}
}
