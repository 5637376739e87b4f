package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
	_ "modernc.org/sqlite"
)

// DB is the SQLite file that holds the key-value store.
type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.RWMutex
	squirrel sq.StatementBuilderType
}

// NewDB opens mathasvc.db in dir, creating the directory and the schema on
// first use.
func NewDB(dir string, log zerolog.Logger) (*DB, error) {
	db := &DB{
		log:      log.With().Str("module", "database").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", dir)
	}

	dsn := filepath.Join(dir, domain.DatabaseFile) + "?_pragma=busy_timeout%3d1000"

	var err error
	db.handler, err = sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", domain.DatabaseFile)
	}

	// the CLI and a running sync may share the file
	if _, err = db.handler.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		db.handler.Close()
		return nil, errors.Wrap(err, "failed to switch to WAL journal")
	}

	if err := db.Migrate(); err != nil {
		db.handler.Close()
		return nil, err
	}

	return db, nil
}

// Migrate brings the schema up to len(migrations). A fresh file gets the full
// schema in one step; older files replay the migrations they are missing.
func (db *DB) Migrate() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	current, err := db.userVersion()
	if err != nil {
		return err
	}
	target := len(migrations)

	switch {
	case current == target:
		return nil
	case current > target:
		return errors.Errorf("%s has schema version %d but this build supports up to %d", domain.DatabaseFile, current, target)
	}

	tx, err := db.handler.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer tx.Rollback()

	steps := []string{schema}
	if current > 0 {
		steps = migrations[current:]
	}
	for i, stmt := range steps {
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrapf(err, "failed to apply schema step %d", current+i+1)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration")
	}

	db.log.Info().Int("from", current).Int("to", target).Msg("migrated database schema")
	return nil
}

func (db *DB) userVersion() (int, error) {
	var v int
	if err := db.handler.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	return v, nil
}

// Close runs PRAGMA optimize and closes the handle.
func (db *DB) Close() error {
	if _, err := db.handler.Exec(`PRAGMA optimize;`); err != nil {
		db.handler.Close()
		return errors.Wrap(err, "failed to optimize database")
	}
	return db.handler.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.handler.PingContext(ctx)
}
