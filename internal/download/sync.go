package download

import (
	"context"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/sodematha/mathasvc/internal/domain"
)

const DefaultWorkers = 3

// SyncAll downloads every cloud item of the catalog that is not yet on disk,
// at most workers at a time. Individual failures are counted, not returned,
// and every started download has finished when SyncAll returns.
func (m *Manager) SyncAll(ctx context.Context, workers int) (domain.SyncStatistics, error) {
	stats := domain.SyncStatistics{}

	items, err := m.catalog.All(ctx, "")
	if err != nil {
		return stats, err
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	stats.TotalItems = len(items)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, item := range items {
		if item.AudioURL.IsBundled() {
			stats.BundledItems++
			continue
		}
		id, path := item.ID, m.PathFor(&item)
		if exists, _ := afero.Exists(m.fs, path); exists {
			err := m.adopt(ctx, id, path)

			mu.Lock()
			if err != nil {
				m.log.Error().Err(err).Str("item", id).Msg("failed to record file already on disk")
				stats.Failed++
				stats.FailedIDs = append(stats.FailedIDs, id)
			} else {
				stats.AlreadyPresent++
			}
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := m.Download(gctx, id, nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				stats.FailedIDs = append(stats.FailedIDs, id)
				return nil
			}
			stats.Downloaded++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	sort.Strings(stats.FailedIDs)

	size, err := m.TotalSize(ctx)
	if err != nil {
		return stats, err
	}
	stats.BytesOnDisk = size

	m.log.Info().
		Int("total", stats.TotalItems).
		Int("bundled", stats.BundledItems).
		Int("present", stats.AlreadyPresent).
		Int("downloaded", stats.Downloaded).
		Int("failed", stats.Failed).
		Msg("sync complete")

	return stats, nil
}
