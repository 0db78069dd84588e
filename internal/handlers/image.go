package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"imagecache-gateway/internal/cache"
	"imagecache-gateway/internal/derivative"
	"imagecache-gateway/internal/metrics"
	"imagecache-gateway/internal/storage"
	"imagecache-gateway/internal/transcode"
	"imagecache-gateway/pkg/logging/logging"
)

// OriginFetcher retrieves original asset bytes for a source path.
type OriginFetcher interface {
	FetchOrigin(ctx context.Context, sourcePath string) (storage.Asset, error)
}

// EdgeProber answers whether a derivative is already served at a key and
// knows the public URL scheme for keys.
type EdgeProber interface {
	DerivativeExists(ctx context.Context, key string) bool
	PublicURL(key string) string
}

// DerivativePublisher writes transcoded bytes under a cache key.
type DerivativePublisher interface {
	Publish(ctx context.Context, key string, data []byte, contentType string) error
}

// ImageHandler drives one cache-aside state machine per request:
// parse, probe, and either redirect to the existing derivative or
// fetch-transcode-publish before issuing the identical redirect.
type ImageHandler struct {
	Origin     OriginFetcher
	Edge       EdgeProber
	Store      DerivativePublisher
	Transcoder transcode.Transcoder
	Memo       cache.KnownKeys
	MemoTTL    time.Duration

	group singleflight.Group
}

func NewImageHandler(
	origin OriginFetcher,
	edge EdgeProber,
	store DerivativePublisher,
	tc transcode.Transcoder,
	memo cache.KnownKeys,
	memoTTL time.Duration,
) *ImageHandler {
	return &ImageHandler{
		Origin:     origin,
		Edge:       edge,
		Store:      store,
		Transcoder: tc,
		Memo:       memo,
		MemoTTL:    memoTTL,
	}
}

type errorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// ServeImage handles GET /api/image.
//
// Success is always a 301 to the derivative's public edge URL; callers cannot
// tell a hit from a freshly published miss. Validation failures are 400
// INVALID_QUERY; every other failure collapses to 500 INTERNAL_SERVER_ERROR
// at the boundary, with the specific kind logged and counted internally.
func (h *ImageHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	spec, err := derivative.ParseSpec(r.URL.Query())
	if err != nil {
		metrics.FailuresTotal.WithLabelValues("VALIDATION").Inc()
		logger.Warn("request rejected",
			zap.String("kind", "VALIDATION"),
			zap.String("query", r.URL.RawQuery),
			zap.Error(err),
		)
		h.writeError(w, http.StatusBadRequest, "INVALID_QUERY")
		return
	}

	key := spec.CacheKey()
	logger = logger.With(
		zap.String("cache_key", key),
		zap.String("source_path", spec.SourcePath),
		zap.Int("width", spec.Width),
		zap.Int("height", spec.Height),
		zap.Int("quality", spec.Quality),
	)

	// Memo consult is best-effort: entries exist only for keys the edge
	// already confirmed, so a hit can redirect without any network call.
	if h.Memo != nil {
		known, memoErr := h.Memo.Known(ctx, key)
		if memoErr == nil && known {
			logger.Info("cache_decision",
				zap.Bool("cache_hit", true),
				zap.String("hit_source", "memo"),
				zap.Duration("total_latency_ms", time.Since(start)),
			)
			http.Redirect(w, r, h.Edge.PublicURL(key), http.StatusMovedPermanently)
			return
		}
	}

	// Stampede suppression: concurrent requests for the same key share one
	// probe/fetch/transcode/publish computation. The computation runs on a
	// detached context so one caller's cancellation cannot fail a sibling;
	// each network call inside stays bounded by its own client timeout.
	result, err, shared := h.group.Do(key, func() (interface{}, error) {
		return h.materialize(context.WithoutCancel(ctx), logger, spec, key)
	})
	if shared {
		metrics.SingleflightSharedTotal.Inc()
	}
	if err != nil {
		kind := failureKind(err)
		metrics.FailuresTotal.WithLabelValues(kind).Inc()
		logger.Error("derivative request failed",
			zap.String("kind", kind),
			zap.Bool("shared", shared),
			zap.Duration("total_latency_ms", time.Since(start)),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR")
		return
	}

	outcome := result.(materializeResult)
	logger.Info("cache_decision",
		zap.Bool("cache_hit", outcome.hit),
		zap.Bool("shared", shared),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	http.Redirect(w, r, outcome.publicURL, http.StatusMovedPermanently)
}

type materializeResult struct {
	publicURL string
	hit       bool
}

// materialize guarantees a derivative exists at key and returns its public
// URL. On a probe hit nothing else runs; on a miss the full
// fetch-transcode-publish chain runs, each step terminal on failure.
func (h *ImageHandler) materialize(
	ctx context.Context,
	logger *zap.Logger,
	spec derivative.Spec,
	key string,
) (materializeResult, error) {
	publicURL := h.Edge.PublicURL(key)

	if h.Edge.DerivativeExists(ctx, key) {
		metrics.EdgeHitsTotal.Inc()
		h.remember(ctx, key)
		return materializeResult{publicURL: publicURL, hit: true}, nil
	}

	asset, err := h.Origin.FetchOrigin(ctx, spec.SourcePath)
	if err != nil {
		return materializeResult{}, err
	}

	derived, err := h.Transcoder.Transcode(ctx, asset.Data, spec.Width, spec.Height, spec.Quality)
	if err != nil {
		return materializeResult{}, err
	}

	if err := h.Store.Publish(ctx, key, derived.Data, derived.ContentType); err != nil {
		return materializeResult{}, err
	}
	metrics.PublishesTotal.Inc()

	logger.Info("derivative published",
		zap.Int("source_bytes", len(asset.Data)),
		zap.Int("derived_bytes", len(derived.Data)),
		zap.String("content_type", derived.ContentType),
	)

	h.remember(ctx, key)
	return materializeResult{publicURL: publicURL, hit: false}, nil
}

// remember records a confirmed key in the memo, best-effort.
func (h *ImageHandler) remember(ctx context.Context, key string) {
	if h.Memo == nil {
		return
	}
	_ = h.Memo.Remember(ctx, key, h.MemoTTL)
}

// failureKind maps a terminal error to its internal taxonomy label.
func failureKind(err error) string {
	var oerr *storage.OriginError
	if errors.As(err, &oerr) {
		return string(oerr.Kind)
	}
	var terr *transcode.TranscodeError
	if errors.As(err, &terr) {
		return "TRANSCODE_FAILED"
	}
	var perr *storage.PublishError
	if errors.As(err, &perr) {
		return "PUBLISH_FAILED"
	}
	return "INTERNAL"
}

// writeError sends the boundary error envelope.
func (h *ImageHandler) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Code: code, Error: msg})
}
