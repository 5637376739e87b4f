package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrNoDownloadURL  = errors.New("object has no download token")
)

// NewResolver returns the resolver selected by cfg.Provider.
func NewResolver(log zerolog.Logger, cfg domain.StorageConfig, client *http.Client) (domain.URLResolver, error) {
	switch cfg.Provider {
	case domain.StorageProviderFirebase, "":
		if cfg.Bucket == "" {
			return nil, errors.Errorf("storage.bucket is required for provider %q", domain.StorageProviderFirebase)
		}
		return NewFirebaseResolver(log, client, FirebaseConfig{
			Bucket:   cfg.Bucket,
			Endpoint: cfg.Endpoint,
			TTL:      cfg.URLTTL,
		}), nil
	case domain.StorageProviderHTTP:
		return NewBaseURLResolver(cfg.BaseURL)
	default:
		return nil, errors.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// LazyResolver builds the configured resolver on the first Resolve call, so
// storage settings are only required once something is actually fetched.
type LazyResolver struct {
	build func() (domain.URLResolver, error)

	once     sync.Once
	resolver domain.URLResolver
	err      error
}

var _ domain.URLResolver = (*LazyResolver)(nil)

func NewLazyResolver(log zerolog.Logger, cfg domain.StorageConfig, client *http.Client) *LazyResolver {
	return &LazyResolver{
		build: func() (domain.URLResolver, error) {
			return NewResolver(log, cfg, client)
		},
	}
}

func (r *LazyResolver) Resolve(ctx context.Context, locator domain.AudioLocator) (string, error) {
	if locator.IsBundled() {
		return string(locator), nil
	}
	r.once.Do(func() {
		r.resolver, r.err = r.build()
	})
	if r.err != nil {
		return "", errors.Wrap(r.err, "storage is not configured")
	}
	return r.resolver.Resolve(ctx, locator)
}

// BaseURLResolver serves objects from a static mirror: <base>/<key>.
type BaseURLResolver struct {
	base *url.URL
}

func NewBaseURLResolver(base string) (*BaseURLResolver, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, errors.New("storage.base_url is required for provider \"http\"")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "invalid storage.base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("storage.base_url must be http(s), got %q", u.Scheme)
	}
	return &BaseURLResolver{base: u}, nil
}

func (r *BaseURLResolver) Resolve(_ context.Context, locator domain.AudioLocator) (string, error) {
	if locator.IsBundled() {
		return string(locator), nil
	}
	key := strings.TrimLeft(string(locator), "/")
	if key == "" {
		return "", errors.New("empty object key")
	}
	return r.base.JoinPath(strings.Split(key, "/")...).String(), nil
}
