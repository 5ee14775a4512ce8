// Package revocation keeps ids of tokens that were revoked before they expired.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Noop never revokes anything; tokens live until they expire.
type Noop struct{}

func (Noop) Revoke(context.Context, string, time.Time) error { return nil }
func (Noop) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// Memory is a process-local denylist. Entries are dropped once their token
// would have expired anyway.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if until.After(m.now()) {
		m.entries[tokenID] = until
	}
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (m *Memory) sweep() {
	now := m.now()
	for id, until := range m.entries {
		if !until.After(now) {
			delete(m.entries, id)
		}
	}
}

// Redis stores revoked ids as keys that expire with the token.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "handoff:revoked:", now: time.Now}
}

// NewRedisFromURL parses a redis:// URL and pings the server.
func NewRedisFromURL(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

func (r *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Close() error { return r.client.Close() }
