package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"imagecache-gateway/internal/cache"
	"imagecache-gateway/internal/handlers"
	"imagecache-gateway/internal/httpserver"
	"imagecache-gateway/internal/metrics"
	"imagecache-gateway/internal/storage"
	"imagecache-gateway/internal/transcode"
	"imagecache-gateway/pkg/logging/logging"
)

type Config struct {
	Port string

	OriginBaseURL string // base of the read-only origin store
	EdgeBaseURL   string // public CDN/edge base; probes and redirects go here
	StoreBaseURL  string // write target for derivatives

	MemoBackend string // "memory" or "redis"
	RedisAddr   string
	MemoTTL     time.Duration

	RequestTimeout time.Duration
}

func LoadConfig() Config {
	edge := os.Getenv("EDGE_BASE_URL")
	return Config{
		Port:           getenv("PORT", "8080"),
		EdgeBaseURL:    edge,
		OriginBaseURL:  getenv("ORIGIN_BASE_URL", edge), // origin served through the CDN unless overridden
		StoreBaseURL:   os.Getenv("STORE_BASE_URL"),
		MemoBackend:    getenv("MEMO_BACKEND", "memory"),
		RedisAddr:      getenv("REDIS_ADDR", "127.0.0.1:6379"),
		MemoTTL:        getenvDuration("MEMO_TTL", 12*time.Hour),
		RequestTimeout: getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	if cfg.EdgeBaseURL == "" {
		return fmt.Errorf("EDGE_BASE_URL is required")
	}
	if cfg.StoreBaseURL == "" {
		return fmt.Errorf("STORE_BASE_URL is required")
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("origin_base_url", cfg.OriginBaseURL),
		zap.String("edge_base_url", cfg.EdgeBaseURL),
		zap.String("store_base_url", cfg.StoreBaseURL),
		zap.String("memo_backend", cfg.MemoBackend),
		zap.Duration("memo_ttl", cfg.MemoTTL),
	)

	// ----- Redis client (only if the redis memo backend is selected) -----
	var redisClient *redis.Client
	if cfg.MemoBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Known-key memo -----
	memo := cache.NewKnownKeys(cache.Config{
		Backend: cfg.MemoBackend,
		Prefix:  "imgcache",
		TTL:     cfg.MemoTTL,
	}, redisClient)
	memo = cache.NewLoggingKnownKeys(memo)

	// ----- Storage clients (origin, edge, derivative store) -----
	store, err := storage.NewClient(storage.Config{
		OriginBaseURL:  cfg.OriginBaseURL,
		EdgeBaseURL:    cfg.EdgeBaseURL,
		StoreBaseURL:   cfg.StoreBaseURL,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// ----- Handler -----
	imageHandler := handlers.NewImageHandler(
		store,
		store,
		store,
		transcode.NewJPEGTranscoder(),
		memo,
		cfg.MemoTTL,
	)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, imageHandler)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("memo_backend", cfg.MemoBackend),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvDuration parses key as seconds, falling back to def.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
