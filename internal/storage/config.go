package storage

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	// Required bases. Origin is read-only, edge answers existence probes and
	// serves the public URLs, store receives derivative writes.
	OriginBaseURL string
	EdgeBaseURL   string
	StoreBaseURL  string

	RequestTimeout time.Duration // per-call timeout (default: 15s)
	MaxAssetBytes  int64         // cap on origin asset size (default: 32 MiB)

	// Optional connection pool settings
	MaxIdleConns        int // default: 100
	MaxIdleConnsPerHost int // default: 100

	// Custom HTTP client (for testing or special configs)
	HTTPClient *http.Client
}

// Validate checks required fields only.
func (c *Config) Validate() error {
	if c.OriginBaseURL == "" {
		return errors.New("OriginBaseURL is required")
	}
	if c.EdgeBaseURL == "" {
		return errors.New("EdgeBaseURL is required")
	}
	if c.StoreBaseURL == "" {
		return errors.New("StoreBaseURL is required")
	}
	return nil
}

// WithDefaults returns a copy of Config with sane defaults applied.
func (c *Config) WithDefaults() Config {
	cfg := *c

	// Normalize bases: trim trailing slashes so paths and keys append cleanly.
	cfg.OriginBaseURL = strings.TrimRight(cfg.OriginBaseURL, "/")
	cfg.EdgeBaseURL = strings.TrimRight(cfg.EdgeBaseURL, "/")
	cfg.StoreBaseURL = strings.TrimRight(cfg.StoreBaseURL, "/")

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MaxAssetBytes <= 0 {
		cfg.MaxAssetBytes = 32 << 20
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 100
	}

	return cfg
}

// defaultTransport creates a production-ready HTTP transport
// with connection pooling and reasonable timeouts.
func defaultTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
