package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"imagecache-gateway/internal/cache"
	"imagecache-gateway/internal/handlers"
	"imagecache-gateway/internal/storage"
	"imagecache-gateway/internal/transcode"
)

type stubBackend struct{}

func (stubBackend) FetchOrigin(_ context.Context, _ string) (storage.Asset, error) {
	return storage.Asset{Data: []byte("orig"), ContentType: "image/png"}, nil
}

func (stubBackend) DerivativeExists(_ context.Context, _ string) bool { return true }

func (stubBackend) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func (stubBackend) Publish(_ context.Context, _ string, _ []byte, _ string) error { return nil }

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	memo := cache.NewMemoryKnownKeys(time.Minute)
	t.Cleanup(func() { memo.Close() })

	h := handlers.NewImageHandler(
		stubBackend{}, stubBackend{}, stubBackend{},
		transcode.NewJPEGTranscoder(),
		memo, time.Hour,
	)

	r := chi.NewRouter()
	SetupRouter(r, zap.NewNop(), h)
	return r
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestImageRouteThroughMiddleware(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/image?path=/a.jpg&width=10&height=10", nil))

	if rr.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rr.Code)
	}
	want := "https://cdn.example.com/cache/width=10,height=10,quality=80/a.jpg"
	if got := rr.Header().Get("Location"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInvalidQueryThroughRouter(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/image?width=0", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
