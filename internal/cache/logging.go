package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"imagecache-gateway/internal/metrics"
	"imagecache-gateway/pkg/logging/logging"
)

// LoggingKnownKeys wraps a KnownKeys backend with logging + metrics.
type LoggingKnownKeys struct {
	inner KnownKeys
}

func NewLoggingKnownKeys(inner KnownKeys) KnownKeys {
	return &LoggingKnownKeys{inner: inner}
}

func (c *LoggingKnownKeys) Known(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	known, err := c.inner.Known(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	result := "unknown"
	if err != nil {
		result = "error"
	} else if known {
		result = "known"
		metrics.MemoHitsTotal.Inc()
	}

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("memo_result", result), // known | unknown | error
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		// Memo is best-effort: log at warn, the caller probes the edge anyway.
		logger.Warn("known_keys_lookup", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("known_keys_lookup", fields...)
	}

	return known, err
}

func (c *LoggingKnownKeys) Remember(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Remember(ctx, key, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		logger.Warn("known_keys_remember", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("known_keys_remember", fields...)
	}

	return err
}
