package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions maps opaque tokens to user ids. The session layer carries no
// business state beyond identity and the pending cart.
type Sessions interface {
	Create(ctx context.Context, token string, userID int64) error
	Lookup(ctx context.Context, token string) (int64, bool, error)
	Destroy(ctx context.Context, token string) error
}

type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(addr, password string, ttl time.Duration) *RedisSessions {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisSessions{client: c, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }

func (s *RedisSessions) Create(ctx context.Context, token string, userID int64) error {
	if err := s.client.Set(ctx, sessionKey(token), userID, s.ttl).Err(); err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (s *RedisSessions) Lookup(ctx context.Context, token string) (int64, bool, error) {
	id, err := s.client.Get(ctx, sessionKey(token)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session lookup: %w", err)
	}
	return id, true, nil
}

func (s *RedisSessions) Destroy(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// MemorySessions is the single-process fallback; entries expire lazily on
// lookup.
type MemorySessions struct {
	mu      sync.RWMutex
	entries map[string]memorySession
	ttl     time.Duration
}

type memorySession struct {
	userID  int64
	expires time.Time
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{entries: make(map[string]memorySession), ttl: ttl}
}

func (s *MemorySessions) Create(_ context.Context, token string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memorySession{userID: userID, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemorySessions) Lookup(_ context.Context, token string) (int64, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	if time.Now().After(e.expires) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return 0, false, nil
	}
	return e.userID, true, nil
}

func (s *MemorySessions) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
