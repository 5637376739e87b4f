package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

const (
	defaultEndpoint   = "https://firebasestorage.googleapis.com"
	defaultURLTTL     = 30 * time.Minute
	defaultCacheSize  = 256
	defaultMaxRetries = 3
)

type FirebaseConfig struct {
	Bucket   string
	Endpoint string
	TTL      time.Duration
}

type cachedURL struct {
	url      string
	storedAt time.Time
}

// FirebaseResolver resolves object keys to tokenised download URLs through
// the Firebase Storage REST metadata endpoint.
type FirebaseResolver struct {
	log      zerolog.Logger
	client   *http.Client
	bucket   string
	endpoint string
	ttl      time.Duration
	cache    *lru.Cache[string, cachedURL]
	now      func() time.Time
	backoff  func() backoff.BackOff
}

var _ domain.URLResolver = (*FirebaseResolver)(nil)

func NewFirebaseResolver(log zerolog.Logger, client *http.Client, cfg FirebaseConfig) *FirebaseResolver {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, cachedURL](defaultCacheSize)

	return &FirebaseResolver{
		log:      log.With().Str("module", "storage").Str("provider", "firebase").Logger(),
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: endpoint,
		ttl:      ttl,
		cache:    cache,
		now:      time.Now,
		backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultMaxRetries)
		},
	}
}

type objectMetadata struct {
	Name           string `json:"name"`
	Bucket         string `json:"bucket"`
	Size           string `json:"size"`
	ContentType    string `json:"contentType"`
	DownloadTokens string `json:"downloadTokens"`
}

func (r *FirebaseResolver) objectURL(key string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s", r.endpoint, url.PathEscape(r.bucket), url.PathEscape(key))
}

// Resolve returns a fetchable URL for locator. Bundled locators are returned
// unchanged.
func (r *FirebaseResolver) Resolve(ctx context.Context, locator domain.AudioLocator) (string, error) {
	if locator.IsBundled() {
		return string(locator), nil
	}
	key := strings.TrimLeft(string(locator), "/")
	if key == "" {
		return "", errors.New("empty object key")
	}

	if c, ok := r.cache.Get(key); ok && r.now().Sub(c.storedAt) < r.ttl {
		return c.url, nil
	}

	var meta *objectMetadata
	op := func() error {
		m, err := r.fetchMetadata(ctx, key)
		if err != nil {
			return err
		}
		meta = m
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn().Err(err).Str("key", key).Dur("retry_in", wait).Msg("metadata lookup failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(r.backoff(), ctx), notify); err != nil {
		return "", errors.Wrapf(err, "failed to get audio URL for %s", key)
	}

	token := strings.TrimSpace(strings.Split(meta.DownloadTokens, ",")[0])
	if token == "" {
		return "", errors.Wrapf(ErrNoDownloadURL, "key %s", key)
	}

	u := r.objectURL(key) + "?" + url.Values{"alt": {"media"}, "token": {token}}.Encode()
	r.cache.Add(key, cachedURL{url: u, storedAt: r.now()})
	r.log.Debug().Str("key", key).Str("size", meta.Size).Msg("resolved download URL")
	return u, nil
}

func (r *FirebaseResolver) fetchMetadata(ctx context.Context, key string) (*objectMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.objectURL(key), nil)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "failed to create request"))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch metadata")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(ErrObjectNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	meta := &objectMetadata{}
	if err := json.Unmarshal(body, meta); err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "failed to unmarshal metadata"))
	}
	return meta, nil
}
