package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/macrolens/menulens/internal/domain"
)

// entry is one cached value, stored as JSON like the Redis backend stores it
type entry struct {
	payload []byte
	expires time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryCache is a thread-safe in-process cache with TTL support
type MemoryCache struct {
	entries map[string]entry
	mutex   sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every
// cleanupInterval (10 minutes when zero). Call Close to stop the sweeper.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go c.sweep(cleanupInterval)
	return c
}

// Get returns the value stored under key decoded from JSON, so callers see
// the same shapes (strings, float64, map[string]interface{}) from every
// backend
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok || e.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	var value interface{}
	if err := json.Unmarshal(e.payload, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value with the given TTL. A non-positive TTL never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	e := entry{payload: payload}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}

	c.mutex.Lock()
	c.entries[key] = e
	c.mutex.Unlock()
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	delete(c.entries, key)
	c.mutex.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired value
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	c.mutex.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

// Size returns the number of stored entries, expired or not
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Clear removes every entry
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	c.entries = make(map[string]entry)
	c.mutex.Unlock()
}

// Close stops the sweeper. The cache stays usable.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mutex.Lock()
			for key, e := range c.entries {
				if e.expired(now) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
