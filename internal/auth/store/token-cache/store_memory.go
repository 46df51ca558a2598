// Package tokencache caches verified token identities keyed by JTI so the
// middleware fast path can skip a full verification. Entries are written on
// successful verification and purged the moment a verification fails.
package tokencache

import (
	"context"
	"sync"
	"time"

	"roster/internal/auth/models"
)

type memoryEntry struct {
	identity  models.Identity
	expiresAt time.Time
}

// InMemoryCache is the single-instance implementation. Expired entries are
// dropped lazily on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *InMemoryCache) Put(_ context.Context, jti string, identity models.Identity, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[jti] = memoryEntry{identity: identity, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *InMemoryCache) Get(_ context.Context, jti string) (models.Identity, bool, error) {
	if jti == "" {
		return models.Identity{}, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[jti]
	c.mu.RUnlock()
	if !ok {
		return models.Identity{}, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, jti)
		c.mu.Unlock()
		return models.Identity{}, false, nil
	}
	return entry.identity, true, nil
}

func (c *InMemoryCache) Purge(_ context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, jti)
	return nil
}
