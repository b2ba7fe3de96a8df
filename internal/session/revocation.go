package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers access tokens that ended before their expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevoker keeps revoked token ids in Redis until the token would have
// expired anyway.
type RedisRevoker struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRevoker returns a Revoker storing keys under prefix.
func NewRedisRevoker(rdb *redis.Client, prefix string) *RedisRevoker {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RedisRevoker{rdb: rdb, prefix: prefix}
}

func (r *RedisRevoker) key(jti string) string { return r.prefix + ":" + jti }

// Revoke marks jti as revoked.  Tokens already past exp are ignored.
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.key(jti), 1, ttl).Err()
}

// Revoked reports whether jti was revoked.
func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker is a process-local Revoker for development and tests.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker returns an empty MemoryRevoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks jti as revoked until exp.
func (m *MemoryRevoker) Revoke(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.revoked {
		if !e.After(now) {
			delete(m.revoked, k)
		}
	}
	if exp.After(now) {
		m.revoked[jti] = exp
	}
	return nil
}

// Revoked reports whether jti is revoked and not yet expired.
func (m *MemoryRevoker) Revoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	return ok && exp.After(m.now()), nil
}
