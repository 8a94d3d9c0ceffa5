package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCacheTTL is how long validated generation payloads are cached.
// The cache is a cost optimization, not authoritative storage.
const ResultCacheTTL = 24 * time.Hour

// RedisRecipeCache stores validated recipe payloads in Redis keyed by the
// derived cache key
type RedisRecipeCache struct {
	redis *redis.Client
}

// NewRedisRecipeCache creates a new RedisRecipeCache instance
func NewRedisRecipeCache(redisClient *redis.Client) *RedisRecipeCache {
	return &RedisRecipeCache{redis: redisClient}
}

func (c *RedisRecipeCache) cacheKey(key string) string {
	return fmt.Sprintf("recipe:cache:%s", key)
}

// Get returns the cached payload for key, reporting whether it was present.
// Cache errors other than a miss are returned so callers can log them, but
// absence never blocks generation.
func (c *RedisRecipeCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	data, err := c.redis.Get(ctx, c.cacheKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read recipe cache: %w", err)
	}
	return json.RawMessage(data), true, nil
}

// Put stores a validated payload under key with the configured TTL
func (c *RedisRecipeCache) Put(ctx context.Context, key string, payload json.RawMessage) error {
	if err := c.redis.Set(ctx, c.cacheKey(key), []byte(payload), ResultCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write recipe cache: %w", err)
	}
	return nil
}
