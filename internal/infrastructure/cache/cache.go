// Package cache provides the CacheRepository backends: an in-process map
// and Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by New
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config selects and configures a backend
type Config struct {
	Type            string
	RedisURL        string // redis://[:password@]host:port/db
	KeyPrefix       string
	CleanupInterval time.Duration
}

// Store is a CacheRepository that holds resources
type Store interface {
	domain.CacheRepository
	Close() error
}

// New builds the configured backend. A Redis backend is pinged before it is
// returned.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemoryCache(cfg.CleanupInterval), nil
	case TypeRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		c := NewRedisCache(client, cfg.KeyPrefix)
		if err := c.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
