package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrBundled        = errors.New("item is bundled with the application")
	ErrNotApplicable  = errors.New("operation not applicable to bundled content")
	ErrDownloadFailed = errors.New("failed to download stotra")
	ErrClearFailed    = errors.New("failed to clear downloads")
)

// DownloadError is returned when a transfer ends with a non-success status or
// a transport error.
type DownloadError struct {
	ItemID     string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s failed with status %d", e.ItemID, e.StatusCode)
	}
	return fmt.Sprintf("download %s failed: %v", e.ItemID, e.Err)
}

func (e *DownloadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDownloadFailed}
	}
	return []error{ErrDownloadFailed, e.Err}
}

// DownloadRecord is the persisted ledger value for a downloaded item.
type DownloadRecord struct {
	LocalPath    string `json:"localPath"`
	DownloadedAt int64  `json:"downloadedAt"`
}

// DownloadedTime returns DownloadedAt as a time.
func (r DownloadRecord) DownloadedTime() time.Time {
	return time.UnixMilli(r.DownloadedAt)
}

// ProgressFunc receives an integer percentage in [0, 100].
type ProgressFunc func(progress int)

// ChunkFunc receives incremental transfer counters. total is <= 0 when the
// remote did not announce a length.
type ChunkFunc func(written, total int64)

// URLResolver turns an object store key into a fetchable URL. Bundled
// locators are returned unchanged.
type URLResolver interface {
	Resolve(ctx context.Context, locator AudioLocator) (string, error)
}

// FileTransfer streams url into dst and reports the final status code.
type FileTransfer interface {
	Fetch(ctx context.Context, url, dst string, onChunk ChunkFunc) (int, error)
}

// ReconcileReport summarises a cache directory walk.
type ReconcileReport struct {
	Adopted []string
	Stale   []string
	Pruned  []string
	Ignored []string
}
