package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/sodematha/mathasvc/internal/catalog"
	"github.com/sodematha/mathasvc/internal/database"
	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/sodematha/mathasvc/internal/download"
	"github.com/sodematha/mathasvc/internal/httpx"
	"github.com/sodematha/mathasvc/internal/identity"
	"github.com/sodematha/mathasvc/internal/notification"
	"github.com/sodematha/mathasvc/internal/panchanga"
	"github.com/sodematha/mathasvc/internal/storage"
	"github.com/sodematha/mathasvc/internal/transfer"
)

// MathaTime is the civil time zone of the matha calendar.
var MathaTime = time.FixedZone("IST", 5*60*60+30*60)

// App holds every component, built once from configuration
type App struct {
	log    zerolog.Logger
	config *domain.Config
	paths  *domain.Paths
	db     *database.DB

	Catalog             *catalog.Catalog
	Downloads           *download.Manager
	Panchanga           *panchanga.Service
	Identity            domain.IdentityProvider
	notificationService domain.NotificationService
}

// Options overrides collaborators that default to the real implementations.
type Options struct {
	Fs         afero.Fs
	HTTPClient *http.Client
	Resolver   domain.URLResolver
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp(ctx context.Context, cfg *domain.Config, log zerolog.Logger, opts Options) (*App, error) {
	paths := domain.NewPaths(cfg.DataDir, cfg.CacheDir)

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpx.NewClient(cfg.Download.Timeout)
	}

	cat, err := catalog.Load(log, cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = storage.NewLazyResolver(log, cfg.Storage, opts.HTTPClient)
	}

	pan, err := panchanga.NewService(log, MathaTime)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize panchanga: %w", err)
	}

	db, err := database.NewDB(paths.DBDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	kv := database.NewKVRepo(log, db)

	ident, err := identity.NewProvider(ctx, log, cfg.Auth, opts.HTTPClient, kv)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize identity: %w", err)
	}

	downloads := download.NewManager(log, download.Options{
		Catalog:  cat,
		Resolver: resolver,
		Transfer: transfer.NewHTTPTransfer(log, opts.HTTPClient, opts.Fs),
		Store:    kv,
		Fs:       opts.Fs,
		Dir:      paths.CacheDir,
	})

	return &App{
		log:                 log,
		config:              cfg,
		paths:               paths,
		db:                  db,
		Catalog:             cat,
		Downloads:           downloads,
		Panchanga:           pan,
		Identity:            ident,
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}, nil
}

func (a *App) Paths() *domain.Paths {
	return a.paths
}

// Close releases the database
func (a *App) Close() error {
	return a.db.Close()
}

// Sync downloads every missing cloud item and reports the outcome to the
// notification channels
func (a *App) Sync(ctx context.Context) (stats domain.SyncStatistics, err error) {
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	stats, err = a.Downloads.SyncAll(ctx, a.config.Download.Workers)
	if err != nil {
		return stats, fmt.Errorf("sync failed: %w", err)
	}

	a.log.Info().
		Int("total_items", stats.TotalItems).
		Int("bundled_items", stats.BundledItems).
		Int("cloud_items", stats.CloudItems()).
		Int("already_present", stats.AlreadyPresent).
		Int("downloaded", stats.Downloaded).
		Int("failed", stats.Failed).
		Float64("coverage_pct", stats.CoveragePercent()).
		Int64("bytes_on_disk", stats.BytesOnDisk).
		Msg("=== SYNC STATISTICS ===")

	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return stats, nil
}
