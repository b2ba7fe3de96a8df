package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedisRevoker(rdb, "test:revoked")
	ctx := context.Background()

	if ok, err := r.Revoked(ctx, "abc"); err != nil || ok {
		t.Fatalf("fresh token reported revoked: %v %v", ok, err)
	}
	if err := r.Revoke(ctx, "abc", time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if ok, err := r.Revoked(ctx, "abc"); err != nil || !ok {
		t.Fatalf("expected revoked, got %v %v", ok, err)
	}
	if ttl := mr.TTL("test:revoked:abc"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("revocation should expire with the token, ttl=%s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := r.Revoked(ctx, "abc"); ok {
		t.Fatal("revocation should lapse after the token expiry")
	}

	if err := r.Revoke(ctx, "old", time.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("test:revoked:old") {
		t.Fatal("expired tokens need no revocation entry")
	}
}

func TestMemoryRevoker(t *testing.T) {
	m := NewMemoryRevoker()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.Revoke(ctx, "a", now.Add(time.Minute))
	if ok, _ := m.Revoked(ctx, "a"); !ok {
		t.Fatal("expected a revoked")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := m.Revoked(ctx, "a"); ok {
		t.Fatal("revocation of a should have lapsed")
	}
}
