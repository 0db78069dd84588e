package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Asset is an original, untransformed object fetched from the origin store.
type Asset struct {
	Data        []byte
	ContentType string
}

// FetchOrigin retrieves the original asset at sourcePath.
//
// A non-2xx status maps to OriginError{ORIGIN_NOT_FOUND}, a transport failure
// or timeout to OriginError{ORIGIN_UNAVAILABLE}. No retries happen here:
// origin absence is permanent for a given path, and transient failures are
// left to the caller's next request.
func (c *Client) FetchOrigin(parentCtx context.Context, sourcePath string) (Asset, error) {
	start := time.Now()

	ctx, cancel := c.callCtx(parentCtx)
	defer cancel()

	url := c.cfg.OriginBaseURL + sourcePath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("storage: build origin request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("origin fetch transport failure",
			zap.String("path", sourcePath),
			zap.String("cause", describeTransportErr(err)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Asset{}, &OriginError{Kind: KindOriginUnavailable, Path: sourcePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("origin returned non-success status",
			zap.String("path", sourcePath),
			zap.Int("status", resp.StatusCode),
		)
		return Asset{}, &OriginError{Kind: KindOriginNotFound, Path: sourcePath, Status: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, c.cfg.MaxAssetBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return Asset{}, &OriginError{Kind: KindOriginUnavailable, Path: sourcePath, Err: err}
	}
	if int64(len(data)) > c.cfg.MaxAssetBytes {
		return Asset{}, &OriginError{
			Kind: KindOriginNotFound,
			Path: sourcePath,
			Err:  fmt.Errorf("asset exceeds %d bytes", c.cfg.MaxAssetBytes),
		}
	}

	c.logger.Debug("origin fetch completed",
		zap.String("path", sourcePath),
		zap.Int("bytes", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Duration("duration", time.Since(start)),
	)

	return Asset{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
