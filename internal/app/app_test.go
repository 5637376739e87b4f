package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodematha/mathasvc/internal/config"
	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/sodematha/mathasvc/internal/storage"
)

const appCatalog = `
stotras:
  - id: om
    title: Om
    category: stotra
    audioUrl: audio/om.mp3
  - id: local
    title: Local
    category: stotra
    audioUrl: bundled://local.mp3
`

func newTestApp(t *testing.T) (*App, afero.Fs) {
	t.Helper()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/om.mp3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	}))
	t.Cleanup(mirror.Close)

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(appCatalog), 0644))

	resolver, err := storage.NewBaseURLResolver(mirror.URL)
	require.NoError(t, err)

	cfg := &domain.Config{
		DataDir:     dir,
		CatalogPath: catalogPath,
		Storage:     domain.StorageConfig{Provider: domain.StorageProviderHTTP, BaseURL: mirror.URL},
		Download:    domain.DownloadConfig{Workers: 2},
		Auth:        domain.AuthConfig{Mode: domain.AuthModeStub},
	}

	fs := afero.NewMemMapFs()
	a, err := NewApp(context.Background(), cfg, zerolog.Nop(), Options{
		Fs:         fs,
		HTTPClient: mirror.Client(),
		Resolver:   resolver,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return a, fs
}

func TestApp_Sync(t *testing.T) {
	a, fs := newTestApp(t)
	ctx := context.Background()

	stats, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.BundledItems)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, int64(2048), stats.BytesOnDisk)

	path := filepath.Join(a.Paths().CacheDir, "om.mp3")
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := a.Downloads.IsDownloaded(ctx, "om")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApp_IdentityUsesStub(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	c, err := a.Identity.SendOTP(ctx, "9876543210")
	require.NoError(t, err)
	_, err = a.Identity.VerifyOTP(ctx, c, "123456")
	require.NoError(t, err)
	assert.NotNil(t, a.Identity.CurrentUser())
}

func TestNewApp_DefaultConfigStartsWithoutStorage(t *testing.T) {
	ctx := context.Background()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("data_dir", t.TempDir())

	cfg, err := config.Load(v)
	require.NoError(t, err)

	a, err := NewApp(ctx, cfg, zerolog.Nop(), Options{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	defer a.Close()

	items, err := a.Catalog.All(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.NotEmpty(t, a.Panchanga.ForDate(time.Now()).Tithi)
	assert.Nil(t, a.Identity.CurrentUser())

	state, err := a.Downloads.State(ctx, "dashavatara-stuti")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotDownloaded, state.Kind)

	_, err = a.Downloads.Download(ctx, "dashavatara-stuti", nil)
	require.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "storage.bucket")
}
