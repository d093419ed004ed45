package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchive(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "nested", "archive.db"),
		Profile: ProfileArchive,
		Name:    "archive",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndMigrates(t *testing.T) {
	db := newArchive(t)
	assert.Equal(t, ProfileArchive, db.Profile())
	assert.Equal(t, "archive", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate(), "schema is idempotent")

	for _, table := range []string{"runs", "run_summaries"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	require.NoError(t, db.HealthCheck(context.Background()))
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageSize)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "scratch.db"), Name: "scratch"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.NoError(t, db.Migrate())
}

func TestWithTransaction(t *testing.T) {
	db := newArchive(t)
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, id string) error {
		_, err := tx.Exec(`INSERT INTO runs (id, created_at, kind, trial_count, year_count, seed, report_year)
			VALUES (?, 0, 'sweep', 1, 1, 1, 1)`, id)
		return err
	}

	require.NoError(t, WithTransaction(db.Conn(), func(tx *sql.Tx) error { return insert(tx, "a") }))

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "b"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "c"))
		panic("bad")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM runs").Scan(&count))
	assert.Equal(t, 1, count, "failed transactions are rolled back")

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}
