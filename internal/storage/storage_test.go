package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, origin, edge, store string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		OriginBaseURL: origin,
		EdgeBaseURL:   edge,
		StoreBaseURL:  store,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClientRequiresBases(t *testing.T) {
	_, err := NewClient(Config{EdgeBaseURL: "http://edge", StoreBaseURL: "http://store"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OriginBaseURL")
}

func TestFetchOriginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/a.jpg", r.URL.Path)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	asset, err := c.FetchOrigin(context.Background(), "/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), asset.Data)
	assert.Equal(t, "image/jpeg", asset.ContentType)
}

func TestFetchOriginNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	_, err := c.FetchOrigin(context.Background(), "/missing.jpg")
	var oerr *OriginError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, KindOriginNotFound, oerr.Kind)
	assert.Equal(t, http.StatusNotFound, oerr.Status)
}

func TestFetchOriginUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	_, err := c.FetchOrigin(context.Background(), "/a.jpg")
	var oerr *OriginError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, KindOriginUnavailable, oerr.Kind)
}

func TestFetchOriginRejectsOversizedAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		OriginBaseURL: srv.URL,
		EdgeBaseURL:   srv.URL,
		StoreBaseURL:  srv.URL,
		MaxAssetBytes: 1024,
	}, nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.FetchOrigin(context.Background(), "/big.jpg")
	var oerr *OriginError
	require.ErrorAs(t, err, &oerr)
}

func TestDerivativeExists(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if r.URL.Path == "/cache/width=10,height=10,quality=80/a.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	assert.True(t, c.DerivativeExists(context.Background(), "cache/width=10,height=10,quality=80/a.jpg"))
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "/cache/width=10,height=10,quality=80/a.jpg", gotPath)

	assert.False(t, c.DerivativeExists(context.Background(), "cache/width=99,height=99,quality=80/b.jpg"))
}

func TestDerivativeExistsFailsOpenToMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	assert.False(t, c.DerivativeExists(context.Background(), "cache/width=10,height=10,quality=80/a.jpg"))
}

func TestPublicURL(t *testing.T) {
	c := newTestClient(t, "http://origin", "http://edge.example.com/", "http://store")
	assert.Equal(t,
		"http://edge.example.com/cache/width=10,height=10,quality=80/a.jpg",
		c.PublicURL("cache/width=10,height=10,quality=80/a.jpg"),
	)
}

func TestPublishIdempotentOverwrite(t *testing.T) {
	var mu sync.Mutex
	objects := map[string]struct {
		body        string
		contentType string
	}{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		objects[r.URL.Path] = struct {
			body        string
			contentType string
		}{string(body), r.Header.Get("Content-Type")}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	key := "cache/width=10,height=10,quality=80/a.jpg"
	require.NoError(t, c.Publish(context.Background(), key, []byte("derived"), "image/jpeg"))
	require.NoError(t, c.Publish(context.Background(), key, []byte("derived"), "image/jpeg"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, objects, 1)
	stored := objects["/"+key]
	assert.Equal(t, "derived", stored.body)
	assert.Equal(t, "image/jpeg", stored.contentType)
}

func TestPublishStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL, srv.URL)

	err := c.Publish(context.Background(), "cache/width=10,height=10,quality=80/a.jpg", []byte("x"), "image/jpeg")
	var perr *PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusServiceUnavailable, perr.Status)
}
