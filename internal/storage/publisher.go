package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Publish writes a derivative under key with an unconditional PUT.
//
// Writing the same key twice is an idempotent overwrite: keys are derived
// from the full transform spec, so concurrent or repeated publishes of the
// same key carry the same bytes. There is no local fallback on failure;
// serving unpublished bytes would bypass the edge layer entirely.
func (c *Client) Publish(parentCtx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()

	ctx, cancel := c.callCtx(parentCtx)
	defer cancel()

	url := c.cfg.StoreBaseURL + "/" + key

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage: build publish request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("publish transport failure",
			zap.String("cache_key", key),
			zap.String("cause", describeTransportErr(err)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return &PublishError{Key: key, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("store rejected publish",
			zap.String("cache_key", key),
			zap.Int("status", resp.StatusCode),
		)
		return &PublishError{Key: key, Status: resp.StatusCode}
	}

	c.logger.Debug("derivative published",
		zap.String("cache_key", key),
		zap.Int("bytes", len(data)),
		zap.String("content_type", contentType),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}
