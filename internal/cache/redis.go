package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKnownKeys implements KnownKeys on Redis, letting gateway replicas
// behind one load balancer share probe knowledge.
type RedisKnownKeys struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Prefix string
}

func NewRedisKnownKeys(client *redis.Client, config RedisConfig) *RedisKnownKeys {
	return &RedisKnownKeys{
		client: client,
		prefix: config.Prefix,
	}
}

// key builds the final Redis key with prefix.
func (c *RedisKnownKeys) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Known reports whether the key was previously confirmed. On Redis error it
// returns (false, err) so the caller can log and fall through to the probe.
func (c *RedisKnownKeys) Known(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	count, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return count > 0, nil
}

// Remember marks the key as confirmed for ttl. A ttl <= 0 forgets it.
func (c *RedisKnownKeys) Remember(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if ttl <= 0 {
		return c.client.Del(ctx, c.key(key)).Err()
	}

	if err := c.client.Set(ctx, c.key(key), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Ping checks if the Redis connection is healthy.
func (c *RedisKnownKeys) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return c.client.Ping(ctx).Err()
}
