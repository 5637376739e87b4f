package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

// KVRepo implements domain.KeyValueStore on the kv_store table
type KVRepo struct {
	log zerolog.Logger
	db  *DB
}

var _ domain.KeyValueStore = (*KVRepo)(nil)

// NewKVRepo creates a new key-value repository
func NewKVRepo(log zerolog.Logger, db *DB) *KVRepo {
	return &KVRepo{
		log: log.With().Str("repo", "kv").Logger(),
		db:  db,
	}
}

// Get returns the value stored under key
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	queryBuilder := r.db.squirrel.
		Select("value").
		From("kv_store").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return "", false, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	var value string
	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "error executing query")
	}

	return value, true, nil
}

// Set inserts or replaces the value stored under key
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	now := time.Now().Format(time.RFC3339)

	queryBuilder := r.db.squirrel.
		Replace("kv_store").
		Columns("key", "value", "updated_at").
		Values(key, value, now)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Set")

	if _, err = r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Delete removes key; deleting a missing key is not an error
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	queryBuilder := r.db.squirrel.
		Delete("kv_store").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Delete")

	if _, err = r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing delete query")
	}

	return nil
}

// ListKeys returns all keys ordered by name
func (r *KVRepo) ListKeys(ctx context.Context) ([]string, error) {
	queryBuilder := r.db.squirrel.
		Select("key").
		From("kv_store").
		OrderBy("key")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListKeys")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return keys, nil
}
