package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *KVRepo {
	t.Helper()

	db, err := NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewKVRepo(zerolog.Nop(), db)
}

func TestKVRepo_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	value, ok, err := repo.Get(context.Background(), "stotra_missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestKVRepo_SetGetReplace(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "stotra_1", `{"localPath":"/a"}`))
	require.NoError(t, repo.Set(ctx, "stotra_1", `{"localPath":"/b"}`))

	value, ok, err := repo.Get(ctx, "stotra_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"localPath":"/b"}`, value)
}

func TestKVRepo_DeleteAndListKeys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "stotra_b", "1"))
	require.NoError(t, repo.Set(ctx, "auth_user", "2"))
	require.NoError(t, repo.Set(ctx, "stotra_a", "3"))

	keys, err := repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth_user", "stotra_a", "stotra_b"}, keys)

	require.NoError(t, repo.Delete(ctx, "stotra_a"))
	require.NoError(t, repo.Delete(ctx, "never_set"))

	keys, err = repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth_user", "stotra_b"}, keys)
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDB(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, NewKVRepo(zerolog.Nop(), db).Set(ctx, "k", "v"))
	require.NoError(t, db.Close())

	db, err = NewDB(dir, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	value, ok, err := NewKVRepo(zerolog.Nop(), db).Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestNewDB_RejectsNewerSchema(t *testing.T) {
	dir := t.TempDir()

	db, err := NewDB(dir, zerolog.Nop())
	require.NoError(t, err)
	_, err = db.handler.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewDB(dir, zerolog.Nop())
	assert.ErrorContains(t, err, "schema version 99")
}
