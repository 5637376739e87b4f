package ledger

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

// KeyPrefix namespaces download records inside the shared key-value store.
const KeyPrefix = "stotra_"

// Ledger persists one DownloadRecord per item id.
type Ledger struct {
	log   zerolog.Logger
	store domain.KeyValueStore
}

func New(log zerolog.Logger, store domain.KeyValueStore) *Ledger {
	return &Ledger{
		log:   log.With().Str("module", "ledger").Logger(),
		store: store,
	}
}

// Key returns the store key for itemID.
func Key(itemID string) string {
	return KeyPrefix + itemID
}

// Get returns the record for itemID, or nil if there is none.
func (l *Ledger) Get(ctx context.Context, itemID string) (*domain.DownloadRecord, error) {
	raw, ok, err := l.store.Get(ctx, Key(itemID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record for %s", itemID)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	rec := &domain.DownloadRecord{}
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, errors.Wrapf(err, "failed to decode record for %s", itemID)
	}
	return rec, nil
}

// Put replaces the record for itemID.
func (l *Ledger) Put(ctx context.Context, itemID string, rec domain.DownloadRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode record")
	}
	if err := l.store.Set(ctx, Key(itemID), string(b)); err != nil {
		return errors.Wrapf(err, "failed to write record for %s", itemID)
	}
	l.log.Debug().Str("item", itemID).Str("path", rec.LocalPath).Msg("recorded download")
	return nil
}

// Delete removes the record for itemID.
func (l *Ledger) Delete(ctx context.Context, itemID string) error {
	if err := l.store.Delete(ctx, Key(itemID)); err != nil {
		return errors.Wrapf(err, "failed to delete record for %s", itemID)
	}
	return nil
}

// ItemIDs lists every item id with a record.
func (l *Ledger) ItemIDs(ctx context.Context) ([]string, error) {
	keys, err := l.store.ListKeys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}

	var ids []string
	for _, k := range keys {
		if strings.HasPrefix(k, KeyPrefix) {
			ids = append(ids, strings.TrimPrefix(k, KeyPrefix))
		}
	}
	return ids, nil
}

// Sweep deletes every key in the ledger namespace and returns how many were
// removed. Keys outside the namespace are left alone.
func (l *Ledger) Sweep(ctx context.Context) (int, error) {
	keys, err := l.store.ListKeys(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list keys")
	}

	n := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, KeyPrefix) {
			continue
		}
		if err := l.store.Delete(ctx, k); err != nil {
			return n, errors.Wrapf(err, "failed to delete %s", k)
		}
		n++
	}
	return n, nil
}
