package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sekolahku/kurikulum/internal/platform/cache"
)

// SessionStore maps bearer tokens to user IDs with a TTL.
type SessionStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// MemorySessions keeps sessions in process memory. Sessions do not survive
// a restart and are not shared between instances.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID  string
	expires time.Time
}

// NewMemorySessions creates an in-memory session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]memorySession)}
}

func (m *MemorySessions) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{userID: userID, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemorySessions) Get(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	if time.Now().After(sess.expires) {
		delete(m.sessions, token)
		return "", ErrSessionNotFound
	}
	return sess.userID, nil
}

func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

const sessionKeyPrefix = "kurikulum:session:"

// RedisSessions stores sessions in Redis so that they survive restarts and
// are visible to every instance.
type RedisSessions struct {
	cache *cache.Cache
}

// NewRedisSessions creates a Redis-backed session store.
func NewRedisSessions(c *cache.Cache) *RedisSessions {
	return &RedisSessions{cache: c}
}

func (r *RedisSessions) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := r.cache.Client.Set(ctx, sessionKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *RedisSessions) Get(ctx context.Context, token string) (string, error) {
	userID, err := r.cache.Client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	return userID, nil
}

func (r *RedisSessions) Delete(ctx context.Context, token string) error {
	if err := r.cache.Client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
