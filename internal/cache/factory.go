package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Backend string // "memory" or "redis"
	Prefix  string
	TTL     time.Duration
}

func NewKnownKeys(cfg Config, redisClient *redis.Client) KnownKeys {
	switch cfg.Backend {
	case "redis":
		return NewRedisKnownKeys(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		})
	default:
		return NewMemoryKnownKeys(cfg.TTL)
	}
}
