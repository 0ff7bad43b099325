package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claims hands out a turn to exactly one worker across instances.
type Claims interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TurnKey is the claim key for one turn.
func TurnKey(callID string, turn int) string {
	return fmt.Sprintf("turn:%s:%d", callID, turn)
}

// RedisClaims uses SET NX so several router instances can share one Redis.
type RedisClaims struct {
	client *redis.Client
}

func NewRedisClaims(client *redis.Client) *RedisClaims {
	return &RedisClaims{client: client}
}

func (r *RedisClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, "callrouter:"+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return ok, nil
}

func (r *RedisClaims) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, "callrouter:"+key).Err()
}

// MemoryClaims is the single-instance fallback when Redis is not configured.
type MemoryClaims struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{claims: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.claims {
		if now.After(exp) {
			delete(m.claims, k)
		}
	}
	if _, held := m.claims[key]; held {
		return false, nil
	}
	m.claims[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryClaims) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.claims, key)
	m.mu.Unlock()
	return nil
}
