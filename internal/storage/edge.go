package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"imagecache-gateway/internal/metrics"
)

// PublicURL returns the edge URL a derivative at key is served from. The same
// URL is issued on hits and on freshly published misses.
func (c *Client) PublicURL(key string) string {
	return c.cfg.EdgeBaseURL + "/" + key
}

// DerivativeExists probes the edge with a metadata-only request.
//
// Uncertainty always resolves to false: a false negative only costs one
// idempotent recomputation, while a false positive would redirect callers to
// a missing object. Probe failures are never surfaced as errors, only logged
// and counted as PROBE_INDETERMINATE.
func (c *Client) DerivativeExists(parentCtx context.Context, key string) bool {
	start := time.Now()

	ctx, cancel := c.callCtx(parentCtx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.PublicURL(key), nil)
	if err != nil {
		c.probeIndeterminate(key, err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.probeIndeterminate(key, err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	exists := resp.StatusCode >= 200 && resp.StatusCode < 300

	c.logger.Debug("edge probe completed",
		zap.String("cache_key", key),
		zap.Int("status", resp.StatusCode),
		zap.Bool("exists", exists),
		zap.Duration("duration", time.Since(start)),
	)

	return exists
}

func (c *Client) probeIndeterminate(key string, err error) {
	metrics.FailuresTotal.WithLabelValues("PROBE_INDETERMINATE").Inc()
	c.logger.Warn("edge probe indeterminate, treating as absent",
		zap.String("kind", "PROBE_INDETERMINATE"),
		zap.String("cache_key", key),
		zap.String("cause", describeTransportErr(err)),
		zap.Error(err),
	)
}
