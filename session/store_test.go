package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, "sg", time.Hour, 30*time.Second), mr
}

func makeSession(id string) *Session {
	return &Session{
		ID:          id,
		Secret:      "secret-" + id,
		ContextID:   1,
		UserID:      42,
		LoginName:   "alice",
		Client:      "desktop",
		Hash:        "abcd1234abcd1234",
		LocalIP:     "192.0.2.1",
		AuthID:      "auth-" + id,
		RandomToken: "token-" + id,
		CreatedAt:   time.Now().Unix(),
	}
}

func TestAddAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	want := makeSession("s1")
	if err := store.Add(ctx, want); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != want.ID || got.Secret != want.Secret || got.UserID != want.UserID {
		t.Fatalf("session mismatch: got %+v", got)
	}
	if got.Hash != want.Hash || got.LocalIP != want.LocalIP {
		t.Fatalf("binding mismatch: got %+v", got)
	}
}

func TestGetUnknownSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSlidesTTLPeekDoesNot(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if err := store.Add(ctx, makeSession("s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	mr.FastForward(40 * time.Minute)
	if _, err := store.Peek(ctx, "s1"); err != nil {
		t.Fatalf("Peek failed: %v", err)
	}

	// Peek must not have refreshed the lifetime.
	mr.FastForward(25 * time.Minute)
	if _, err := store.Peek(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry after Peek-only access, got %v", err)
	}

	if err := store.Add(ctx, makeSession("s2")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	mr.FastForward(40 * time.Minute)
	if _, err := store.Get(ctx, "s2"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	mr.FastForward(40 * time.Minute)
	if _, err := store.Get(ctx, "s2"); err != nil {
		t.Fatalf("expected Get to have slid the TTL forward, got %v", err)
	}
}

func TestGetByAlternative(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.GetByAlternative(ctx, sess.Hash, sess.LocalIP)
	if err != nil {
		t.Fatalf("GetByAlternative failed: %v", err)
	}
	if got.ID != "s1" {
		t.Fatalf("expected s1, got %s", got.ID)
	}

	if _, err := store.GetByAlternative(ctx, sess.Hash, "198.51.100.9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign address, got %v", err)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.Redeem(ctx, sess.RandomToken)
	if err != nil {
		t.Fatalf("first Redeem failed: %v", err)
	}
	if got.ID != "s1" {
		t.Fatalf("expected s1, got %s", got.ID)
	}
	if got.RandomToken != "" {
		t.Fatalf("token must be cleared from the record, got %q", got.RandomToken)
	}

	if _, err := store.Redeem(ctx, sess.RandomToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Redeem must fail, got %v", err)
	}

	// The session itself survives redemption.
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("session must survive redemption: %v", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	mr.FastForward(time.Minute)
	if _, err := store.Redeem(ctx, sess.RandomToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestRemoveIsIdempotentAndCleansSecondaryKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, "s1"); err != nil {
		t.Fatalf("first Remove failed: %v", err)
	}
	if err := store.Remove(ctx, "s1"); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}

	if _, err := store.GetByAlternative(ctx, sess.Hash, sess.LocalIP); !errors.Is(err, ErrNotFound) {
		t.Fatalf("alternative key must be gone, got %v", err)
	}
	if _, err := store.Redeem(ctx, sess.RandomToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("token key must be gone, got %v", err)
	}
}

func TestUpdateLocalIPMovesAlternativeKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.UpdateLocalIP(ctx, "s1", "203.0.113.7")
	if err != nil {
		t.Fatalf("UpdateLocalIP failed: %v", err)
	}
	if got.LocalIP != "203.0.113.7" {
		t.Fatalf("expected new address, got %s", got.LocalIP)
	}

	if _, err := store.GetByAlternative(ctx, sess.Hash, "192.0.2.1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old alternative key must be gone, got %v", err)
	}
	if _, err := store.GetByAlternative(ctx, sess.Hash, "203.0.113.7"); err != nil {
		t.Fatalf("new alternative key must resolve: %v", err)
	}
}

func TestUpdateClientRebindsHash(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := makeSession("s1")
	if err := store.Add(ctx, sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.UpdateClient(ctx, "s1", "mobile", "2.0", "ffff0000ffff0000")
	if err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}
	if got.Client != "mobile" || got.Version != "2.0" || got.Hash != "ffff0000ffff0000" {
		t.Fatalf("rebind mismatch: %+v", got)
	}

	if _, err := store.GetByAlternative(ctx, "ffff0000ffff0000", sess.LocalIP); err != nil {
		t.Fatalf("new alternative key must resolve: %v", err)
	}
	if _, err := store.GetByAlternative(ctx, "abcd1234abcd1234", sess.LocalIP); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old alternative key must be gone, got %v", err)
	}
}
