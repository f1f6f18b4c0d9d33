// Package memory implements the cache interface in process memory.
//
// Entries expire lazily: an expired entry is dropped when read. Suitable
// for single-instance deployments and tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/previewhq/storyhost"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is an in-process key/value cache with per-entry TTLs.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the value stored under key, or storyhost.ErrNotFound when the
// key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, storyhost.ErrNotFound
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		return nil, storyhost.ErrNotFound
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

// Put stores value under key, replacing any existing entry. A non-positive
// ttl stores the entry without expiry.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

// Delete removes key. Returns storyhost.ErrNotFound if it was not present.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return storyhost.ErrNotFound
	}
	delete(c.entries, key)
	return nil
}
