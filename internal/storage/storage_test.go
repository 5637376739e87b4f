package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodematha/mathasvc/internal/domain"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*FirebaseResolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewFirebaseResolver(zerolog.Nop(), srv.Client(), FirebaseConfig{
		Bucket:   "matha-app.appspot.com",
		Endpoint: srv.URL,
		TTL:      time.Minute,
	})
	r.backoff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return r, srv
}

func TestFirebaseResolver_BuildsTokenURL(t *testing.T) {
	var gotPath string
	r, srv := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"name":"audio/s1.mp3","size":"1024","downloadTokens":"tok-a,tok-b"}`))
	})

	u, err := r.Resolve(context.Background(), "audio/s1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "/v0/b/matha-app.appspot.com/o/audio%2Fs1.mp3", gotPath)
	assert.Equal(t, srv.URL+"/v0/b/matha-app.appspot.com/o/audio%2Fs1.mp3?alt=media&token=tok-a", u)
}

func TestFirebaseResolver_BundledPassThrough(t *testing.T) {
	var calls int32
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	u, err := r.Resolve(context.Background(), "bundled://suprabhata.mp3")
	require.NoError(t, err)
	assert.Equal(t, "bundled://suprabhata.mp3", u)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFirebaseResolver_CachesUntilTTL(t *testing.T) {
	var calls int32
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"downloadTokens":"tok"}`))
	})
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := r.Resolve(ctx, "audio/s1.mp3")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "audio/s1.mp3")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Minute)
	_, err = r.Resolve(ctx, "audio/s1.mp3")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFirebaseResolver_RetriesServerErrors(t *testing.T) {
	var calls int32
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"downloadTokens":"tok"}`))
	})

	_, err := r.Resolve(context.Background(), "audio/s1.mp3")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFirebaseResolver_NotFoundIsPermanent(t *testing.T) {
	var calls int32
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := r.Resolve(context.Background(), "audio/missing.mp3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFirebaseResolver_MissingToken(t *testing.T) {
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"name":"audio/s1.mp3"}`))
	})

	_, err := r.Resolve(context.Background(), "audio/s1.mp3")
	assert.ErrorIs(t, err, ErrNoDownloadURL)
}

func TestBaseURLResolver(t *testing.T) {
	r, err := NewBaseURLResolver("https://media.example.org/matha/")
	require.NoError(t, err)

	u, err := r.Resolve(context.Background(), "audio/s 1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.org/matha/audio/s%201.mp3", u)

	u, err = r.Resolve(context.Background(), "bundled://x.mp3")
	require.NoError(t, err)
	assert.Equal(t, "bundled://x.mp3", u)

	_, err = NewBaseURLResolver("ftp://example.org")
	assert.Error(t, err)
}

func TestNewResolver_SelectsProvider(t *testing.T) {
	r, err := NewResolver(zerolog.Nop(), domain.StorageConfig{Provider: domain.StorageProviderHTTP, BaseURL: "http://localhost:9000"}, http.DefaultClient)
	require.NoError(t, err)
	assert.IsType(t, &BaseURLResolver{}, r)

	r, err = NewResolver(zerolog.Nop(), domain.StorageConfig{Provider: domain.StorageProviderFirebase, Bucket: "b"}, http.DefaultClient)
	require.NoError(t, err)
	assert.IsType(t, &FirebaseResolver{}, r)

	_, err = NewResolver(zerolog.Nop(), domain.StorageConfig{Provider: domain.StorageProviderFirebase}, http.DefaultClient)
	assert.Error(t, err)

	_, err = NewResolver(zerolog.Nop(), domain.StorageConfig{Provider: "s3"}, http.DefaultClient)
	assert.Error(t, err)
}

func TestLazyResolver_DefersConfigErrors(t *testing.T) {
	r := NewLazyResolver(zerolog.Nop(), domain.StorageConfig{Provider: domain.StorageProviderFirebase}, http.DefaultClient)

	u, err := r.Resolve(context.Background(), "bundled://a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "bundled://a.mp3", u)

	_, err = r.Resolve(context.Background(), "audio/a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.bucket")
}

func TestLazyResolver_BuildsOnce(t *testing.T) {
	r := NewLazyResolver(zerolog.Nop(), domain.StorageConfig{Provider: domain.StorageProviderHTTP, BaseURL: "https://mirror.example"}, http.DefaultClient)

	for i := 0; i < 2; i++ {
		u, err := r.Resolve(context.Background(), "audio/a.mp3")
		require.NoError(t, err)
		assert.Equal(t, "https://mirror.example/audio/a.mp3", u)
	}
}
