package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryKnownKeys is the single-process memo backend: a TTL set of confirmed
// keys with a background sweep.
type MemoryKnownKeys struct {
	mu              sync.RWMutex
	expiry          map[string]time.Time
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	cleanupInterval time.Duration
}

func NewMemoryKnownKeys(cleanupInterval time.Duration) *MemoryKnownKeys {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	c := &MemoryKnownKeys{
		expiry:          make(map[string]time.Time),
		stopCleanup:     make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}

	go c.cleanupExpired()

	return c
}

func (c *MemoryKnownKeys) Known(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	expiresAt, ok := c.expiry[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}

	now := time.Now()
	if now.After(expiresAt) {
		c.mu.Lock()
		if e, exists := c.expiry[key]; exists && now.After(e) {
			delete(c.expiry, key)
		}
		c.mu.Unlock()
		return false, nil
	}

	return true, nil
}

func (c *MemoryKnownKeys) Remember(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		c.mu.Lock()
		delete(c.expiry, key)
		c.mu.Unlock()
		return nil
	}

	expiresAt := time.Now().Add(ttl)

	c.mu.Lock()
	c.expiry[key] = expiresAt
	c.mu.Unlock()

	return nil
}

// cleanupExpired runs periodically to remove expired entries.
func (c *MemoryKnownKeys) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, expiresAt := range c.expiry {
				if now.After(expiresAt) {
					delete(c.expiry, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine. Call this on shutdown or in tests.
func (c *MemoryKnownKeys) Close() error {
	c.cleanupOnce.Do(func() {
		close(c.stopCleanup)
	})
	return nil
}

// Len returns the number of keys currently memoized.
func (c *MemoryKnownKeys) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.expiry)
}
