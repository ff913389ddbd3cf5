// Package cache invalidates per-user cached state when a session switches
// identity.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Invalidator removes cached per-user state.
type Invalidator interface {
	// Invalidate drops every cache entry belonging to the tenant's user.
	Invalidate(ctx context.Context, tenantID int, username string) error
}

// RedisCache invalidates user entries stored in Redis under
// "user:{tenant}:{username}" and any subkeys below it.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed invalidator.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func userKeyPrefix(tenantID int, username string) string {
	return fmt.Sprintf("user:%d:%s", tenantID, username)
}

func (c *RedisCache) Invalidate(ctx context.Context, tenantID int, username string) error {
	prefix := userKeyPrefix(tenantID, username)

	if err := c.client.Del(ctx, prefix).Err(); err != nil {
		return fmt.Errorf("delete user cache key: %w", err)
	}

	iter := c.client.Scan(ctx, 0, prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete user cache key %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan user cache keys: %w", err)
	}
	return nil
}

// MockInvalidator records invalidations for testing.
type MockInvalidator struct {
	mu          sync.Mutex
	invalidated []string

	FailWith error // Optional override: every call returns this error
}

// NewMockInvalidator creates a new mock invalidator.
func NewMockInvalidator() *MockInvalidator {
	return &MockInvalidator{}
}

func (m *MockInvalidator) Invalidate(ctx context.Context, tenantID int, username string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, userKeyPrefix(tenantID, username))
	return nil
}

// Invalidated returns the recorded cache key prefixes in call order.
func (m *MockInvalidator) Invalidated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.invalidated))
	copy(out, m.invalidated)
	return out
}
