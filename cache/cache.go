// Package cache provides the TTL key/value store used for fetched reference
// content. Callers inject it, so lifetime and invalidation stay with them.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"order-assistant/config"
)

// Cache is a byte-value store with per-entry expiry.
type Cache interface {
	// Get returns the value and whether it exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value for ttl. A ttl <= 0 keeps the entry until overwritten.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops key if present.
	Delete(ctx context.Context, key string) error
}

// New builds the driver selected in cfg.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisCache(client, "order-assistant:"), nil
	default:
		return nil, fmt.Errorf("invalid cache driver: %s", cfg.Driver)
	}
}
