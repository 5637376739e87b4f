package domain

import "context"

// KeyValueStore defines the interface for the persistent key-value store
// backing the download ledger and the signed-in session
type KeyValueStore interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// ListKeys returns every key in the store
	ListKeys(ctx context.Context) ([]string, error)
}
