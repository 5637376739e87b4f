package download

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/sodematha/mathasvc/internal/domain"
)

const partSuffix = ".part"

// Reconcile walks the cache directory and brings the ledger in line with it.
// Files named <id>.<ext> for catalog items without a record are adopted.
// Records whose file is gone are reported as stale and removed only when
// prune is set. Everything else in the directory is reported as ignored.
func (m *Manager) Reconcile(ctx context.Context, prune bool) (domain.ReconcileReport, error) {
	report := domain.ReconcileReport{}

	m.log.Info().Str("dir", m.dir).Bool("prune", prune).Msg("Starting cache reconcile")

	entries, err := afero.ReadDir(m.fs, m.dir)
	if err != nil && !os.IsNotExist(err) {
		return report, errors.Wrapf(err, "failed to read %s", m.dir)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := e.Name()
		if e.IsDir() {
			report.Ignored = append(report.Ignored, name)
			continue
		}

		item, ok := m.itemForFile(ctx, name)
		if !ok {
			report.Ignored = append(report.Ignored, name)
			continue
		}

		path := filepath.Join(m.dir, name)
		rec, err := m.ledger.Get(ctx, item.ID)
		if err != nil {
			m.log.Warn().Err(err).Str("item", item.ID).Msg("unreadable record, rewriting")
		} else if rec != nil && rec.LocalPath == path {
			continue
		}

		if err := m.adopt(ctx, item.ID, path); err != nil {
			return report, err
		}
		report.Adopted = append(report.Adopted, item.ID)
	}

	ids, err := m.ledger.ItemIDs(ctx)
	if err != nil {
		return report, err
	}
	for _, id := range ids {
		rec, err := m.ledger.Get(ctx, id)
		if err != nil {
			m.log.Warn().Err(err).Str("item", id).Msg("unreadable record")
			continue
		}
		if rec == nil {
			continue
		}

		exists, err := afero.Exists(m.fs, rec.LocalPath)
		if err != nil {
			return report, errors.Wrapf(err, "failed to stat %s", rec.LocalPath)
		}
		if exists {
			continue
		}

		report.Stale = append(report.Stale, id)
		if !prune {
			continue
		}
		if err := m.ledger.Delete(ctx, id); err != nil {
			return report, err
		}
		report.Pruned = append(report.Pruned, id)
	}

	m.log.Info().
		Int("adopted", len(report.Adopted)).
		Int("stale", len(report.Stale)).
		Int("pruned", len(report.Pruned)).
		Int("ignored", len(report.Ignored)).
		Msg("Cache reconcile complete")

	return report, nil
}

// itemForFile maps a cache file name back to its catalog item. Only the exact
// name PathFor would produce matches.
func (m *Manager) itemForFile(ctx context.Context, name string) (*domain.Stotra, bool) {
	if strings.HasSuffix(name, partSuffix) {
		return nil, false
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return nil, false
	}

	item, err := m.catalog.Get(ctx, strings.TrimSuffix(name, ext))
	if err != nil || item.AudioURL.IsBundled() {
		return nil, false
	}
	if filepath.Base(m.PathFor(item)) != name {
		return nil, false
	}
	return item, true
}
