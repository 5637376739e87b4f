package download

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodematha/mathasvc/internal/database"
	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/sodematha/mathasvc/internal/ledger"
)

func TestReconcile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	l := ledger.New(fx.m.log, fx.kv)

	// orphan file of a catalog item
	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "om.mp3"), []byte("om"), 0644))
	// wrong extension, leftover part file and an unknown id
	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "chant.mp3"), []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "om.123.part"), []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "other.mp3"), []byte("x"), 0644))
	// record without a file
	require.NoError(t, l.Put(ctx, "chant", domain.DownloadRecord{LocalPath: filepath.Join(cacheDir, "chant.m4a")}))

	report, err := fx.m.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"om"}, report.Adopted)
	assert.Equal(t, []string{"chant"}, report.Stale)
	assert.Empty(t, report.Pruned)
	assert.ElementsMatch(t, []string{"chant.mp3", "om.123.part", "other.mp3"}, report.Ignored)
	assert.NotNil(t, fx.record(t, "chant"))

	ok, err := fx.m.IsDownloaded(ctx, "om")
	require.NoError(t, err)
	assert.True(t, ok)

	report, err = fx.m.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, report.Adopted)
	assert.Equal(t, []string{"chant"}, report.Pruned)
	assert.Nil(t, fx.record(t, "chant"))
}

func TestReconcile_MissingDir(t *testing.T) {
	fx := newFixture(t)

	report, err := fx.m.Reconcile(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, report.Adopted)
	assert.Empty(t, report.Stale)
}

func TestSyncAll(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "om.mp3"), []byte("om"), 0644))

	stats, err := fx.m.SyncAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.BundledItems)
	assert.Equal(t, 1, stats.AlreadyPresent)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, int64(12), stats.BytesOnDisk)
	assert.Equal(t, float64(100), stats.CoveragePercent())
	assert.NotNil(t, fx.record(t, "om"))
}

func TestSyncAll_CountsFailures(t *testing.T) {
	fx := newFixture(t)
	fx.transfer.status = http.StatusForbidden

	stats, err := fx.m.SyncAll(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, []string{"chant", "om"}, stats.FailedIDs)
	assert.Zero(t, stats.CoveragePercent())
}

// failingGetKV fails reads of a single key.
type failingGetKV struct {
	*database.MemoryKV
	key string
}

func (k failingGetKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == k.key {
		return "", false, errors.New("boom")
	}
	return k.MemoryKV.Get(ctx, key)
}

func TestSyncAll_WaitsForDownloadsWhenRecordingFails(t *testing.T) {
	fx := newFixture(t)
	fx.transfer.block = make(chan struct{})
	ctx := context.Background()

	m := NewManager(zerolog.Nop(), Options{
		Catalog:  fx.m.catalog,
		Resolver: fx.resolver,
		Transfer: fx.transfer,
		Store:    failingGetKV{MemoryKV: fx.kv, key: ledger.Key("om")},
		Fs:       fx.fs,
		Dir:      cacheDir,
	})
	require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(cacheDir, "om.mp3"), []byte("om"), 0644))

	var (
		stats domain.SyncStatistics
		err   error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		stats, err = m.SyncAll(ctx, 2)
	}()

	require.Eventually(t, func() bool { return fx.transfer.calls.Load() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("SyncAll returned while a download was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(fx.transfer.block)
	<-done

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Zero(t, stats.AlreadyPresent)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{"om"}, stats.FailedIDs)
	assert.NotNil(t, fx.record(t, "chant"))
}
