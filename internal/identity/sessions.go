package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examportal-backend/internal/config"
)

// SessionRegistry tracks issued token ids so a sign-out takes effect before
// the token expires.
type SessionRegistry interface {
	Register(ctx context.Context, uid, jti string, ttl time.Duration) error
	Active(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	// RevokeAll drops every session of one account.
	RevokeAll(ctx context.Context, uid string) error
}

// ─── Redis ────────────────────────────────────────────────────────────

// RedisSessions stores session:{jti} -> uid with the token's expiry and keeps
// a per-account set for bulk revocation.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (r *RedisSessions) Register(ctx context.Context, uid, jti string, ttl time.Duration) error {
	userKey := config.CacheKey.UserSessionsKey(uid)
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SessionKey(jti), uid, ttl)
	pipe.SAdd(ctx, userKey, jti)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisSessions) Active(ctx context.Context, jti string) (bool, error) {
	err := r.rdb.Get(ctx, config.CacheKey.SessionKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return true, nil
}

func (r *RedisSessions) Revoke(ctx context.Context, jti string) error {
	key := config.CacheKey.SessionKey(jti)
	uid, err := r.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return r.rdb.SRem(ctx, config.CacheKey.UserSessionsKey(uid), jti).Err()
}

func (r *RedisSessions) RevokeAll(ctx context.Context, uid string) error {
	userKey := config.CacheKey.UserSessionsKey(uid)
	jtis, err := r.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, config.CacheKey.SessionKey(jti))
	}
	keys = append(keys, userKey)
	return r.rdb.Del(ctx, keys...).Err()
}

// ─── In-process ───────────────────────────────────────────────────────

// MemorySessions is a SessionRegistry for a single process.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	uid     string
	expires time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]memorySession), now: time.Now}
}

func (m *MemorySessions) Register(_ context.Context, uid, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[jti] = memorySession{uid: uid, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessions) Active(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(s.expires) {
		delete(m.sessions, jti)
		return false, nil
	}
	return true, nil
}

func (m *MemorySessions) Revoke(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, jti)
	return nil
}

func (m *MemorySessions) RevokeAll(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, s := range m.sessions {
		if s.uid == uid {
			delete(m.sessions, jti)
		}
	}
	return nil
}
