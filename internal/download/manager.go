package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/sodematha/mathasvc/internal/ledger"
)

// Manager owns the on-disk audio cache and its ledger.
type Manager struct {
	log      zerolog.Logger
	catalog  domain.Catalog
	resolver domain.URLResolver
	transfer domain.FileTransfer
	ledger   *ledger.Ledger
	fs       afero.Fs
	dir      string
	broker   *ProgressBroker
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]*flight
}

type Options struct {
	Catalog  domain.Catalog
	Resolver domain.URLResolver
	Transfer domain.FileTransfer
	Store    domain.KeyValueStore
	Fs       afero.Fs
	Dir      string
}

func NewManager(log zerolog.Logger, opts Options) *Manager {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{
		log:      log.With().Str("module", "download").Logger(),
		catalog:  opts.Catalog,
		resolver: opts.Resolver,
		transfer: opts.Transfer,
		ledger:   ledger.New(log, opts.Store),
		fs:       fs,
		dir:      opts.Dir,
		broker:   NewProgressBroker(),
		now:      time.Now,
		inflight: make(map[string]*flight),
	}
}

// Dir is the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

// PathFor is the deterministic cache path of item.
func (m *Manager) PathFor(item *domain.Stotra) string {
	return filepath.Join(m.dir, item.ID+"."+item.AudioURL.Ext())
}

// Subscribe observes progress of every download of itemID.
func (m *Manager) Subscribe(itemID string, fn domain.ProgressFunc) func() {
	return m.broker.Subscribe(itemID, fn)
}

// Download makes the audio of itemID available locally and returns its path.
// Bundled items return domain.ErrBundled. Concurrent calls for one item share
// a single transfer.
func (m *Manager) Download(ctx context.Context, itemID string, onProgress domain.ProgressFunc) (string, error) {
	item, err := m.catalog.Get(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.AudioURL.IsBundled() {
		return "", domain.ErrBundled
	}

	path := m.PathFor(item)

	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat %s", path)
	}
	if exists {
		if err := m.adopt(ctx, itemID, path); err != nil {
			return "", err
		}
		m.log.Debug().Str("item", itemID).Msg("already on disk")
		return path, nil
	}

	m.mu.Lock()
	if f, ok := m.inflight[itemID]; ok {
		f.join(onProgress)
		m.mu.Unlock()

		m.log.Debug().Str("item", itemID).Msg("joining running download")
		select {
		case <-f.done:
			return f.path, f.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	// A flight for this item may have finished since the first check.
	if exists, _ := afero.Exists(m.fs, path); exists {
		m.mu.Unlock()
		return path, m.adopt(ctx, itemID, path)
	}
	f := newFlight(onProgress)
	m.inflight[itemID] = f
	m.mu.Unlock()

	m.emit(itemID, f, domain.DownloadEvent{Kind: domain.EventProgress, Progress: 0})
	f.path, f.err = m.fetch(ctx, item, path, f)

	m.mu.Lock()
	delete(m.inflight, itemID)
	m.mu.Unlock()
	close(f.done)

	return f.path, f.err
}

func (m *Manager) fetch(ctx context.Context, item *domain.Stotra, path string, f *flight) (string, error) {
	log := m.log.With().Str("item", item.ID).Logger()
	fail := func(status int, err error) (string, error) {
		m.emit(item.ID, f, domain.DownloadEvent{Kind: domain.EventFail})
		log.Error().Err(err).Int("status", status).Msg("download failed")
		return "", &domain.DownloadError{ItemID: item.ID, StatusCode: status, Err: err}
	}

	if err := m.fs.MkdirAll(m.dir, 0755); err != nil {
		return fail(0, errors.Wrapf(err, "failed to create %s", m.dir))
	}

	url, err := m.resolver.Resolve(ctx, item.AudioURL)
	if err != nil {
		return fail(0, err)
	}

	tmp, err := afero.TempFile(m.fs, m.dir, item.ID+".*"+partSuffix)
	if err != nil {
		return fail(0, errors.Wrap(err, "failed to create temp file"))
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	log.Info().Str("dst", path).Msg("downloading")
	status, err := m.transfer.Fetch(ctx, url, tmpName, func(written, total int64) {
		if total <= 0 {
			return
		}
		p := int(written * 100 / total)
		m.emit(item.ID, f, domain.DownloadEvent{Kind: domain.EventProgress, Progress: p})
	})
	if err != nil || status < 200 || status >= 300 {
		if rmErr := m.fs.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove partial file")
		}
		return fail(status, err)
	}

	if err := m.fs.Rename(tmpName, path); err != nil {
		_ = m.fs.Remove(tmpName)
		return fail(status, errors.Wrapf(err, "failed to move download into %s", path))
	}

	rec := domain.DownloadRecord{LocalPath: path, DownloadedAt: m.now().UnixMilli()}
	if err := m.ledger.Put(ctx, item.ID, rec); err != nil {
		return fail(status, err)
	}

	m.emit(item.ID, f, domain.DownloadEvent{Kind: domain.EventComplete, LocalPath: path})
	log.Info().Str("path", path).Msg("download complete")
	return path, nil
}

func (m *Manager) emit(itemID string, f *flight, ev domain.DownloadEvent) {
	p, fns := f.apply(ev)
	if p < 0 {
		return
	}
	for _, fn := range fns {
		fn(p)
	}
	m.broker.Publish(itemID, p)
}

// adopt writes a record for a file that is already in place.
func (m *Manager) adopt(ctx context.Context, itemID, path string) error {
	rec, err := m.ledger.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if rec != nil && rec.LocalPath == path {
		return nil
	}
	return m.ledger.Put(ctx, itemID, domain.DownloadRecord{LocalPath: path, DownloadedAt: m.now().UnixMilli()})
}

// IsDownloaded reports whether itemID can be played offline. Bundled items
// always can. A record whose file is gone reports false and is kept.
func (m *Manager) IsDownloaded(ctx context.Context, itemID string) (bool, error) {
	item, err := m.catalog.Get(ctx, itemID)
	if err != nil {
		return false, err
	}
	if item.AudioURL.IsBundled() {
		return true, nil
	}

	rec, err := m.ledger.Get(ctx, itemID)
	if err != nil || rec == nil {
		return false, err
	}

	exists, err := afero.Exists(m.fs, rec.LocalPath)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", rec.LocalPath)
	}
	return exists, nil
}

// LocalPath returns the recorded path for itemID without checking the disk.
func (m *Manager) LocalPath(ctx context.Context, itemID string) (string, bool, error) {
	rec, err := m.ledger.Get(ctx, itemID)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.LocalPath, true, nil
}

// Delete removes the cached file and record of itemID. Items without a record
// are left as they are.
func (m *Manager) Delete(ctx context.Context, itemID string) error {
	item, err := m.catalog.Get(ctx, itemID)
	switch {
	case err == nil && item.AudioURL.IsBundled():
		return domain.ErrNotApplicable
	case err != nil && !errors.Is(err, domain.ErrItemNotFound):
		return err
	}

	rec, err := m.ledger.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if err := m.fs.Remove(rec.LocalPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", rec.LocalPath)
	}
	if err := m.ledger.Delete(ctx, itemID); err != nil {
		return err
	}

	m.log.Info().Str("item", itemID).Msg("deleted download")
	return nil
}

// ClearAll drops every record and empties the cache directory.
func (m *Manager) ClearAll(ctx context.Context) error {
	n, err := m.ledger.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrClearFailed, err)
	}
	if err := m.fs.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrClearFailed, err)
	}
	if err := m.fs.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrClearFailed, err)
	}

	m.log.Info().Int("records", n).Str("dir", m.dir).Msg("cleared downloads")
	return nil
}

// State derives the current DownloadState of itemID.
func (m *Manager) State(ctx context.Context, itemID string) (domain.DownloadState, error) {
	item, err := m.catalog.Get(ctx, itemID)
	if err != nil {
		return domain.NotDownloaded(), err
	}
	if item.AudioURL.IsBundled() {
		return domain.Bundled(), nil
	}

	m.mu.Lock()
	f, running := m.inflight[itemID]
	m.mu.Unlock()
	if running {
		return f.snapshot(), nil
	}

	ok, err := m.IsDownloaded(ctx, itemID)
	if err != nil || !ok {
		return domain.NotDownloaded(), err
	}
	path, _, err := m.LocalPath(ctx, itemID)
	if err != nil {
		return domain.NotDownloaded(), err
	}
	return domain.Downloaded(path), nil
}

// TotalSize sums the sizes of the finished audio files in the cache
// directory. Unfinished .part files are not counted.
func (m *Manager) TotalSize(_ context.Context) (int64, error) {
	entries, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "failed to read %s", m.dir)
	}

	var total int64
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), partSuffix) {
			continue
		}
		total += e.Size()
	}
	return total, nil
}

func (m *Manager) waiters(itemID string) int {
	m.mu.Lock()
	f, ok := m.inflight[itemID]
	m.mu.Unlock()
	if !ok {
		return -1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiters
}
