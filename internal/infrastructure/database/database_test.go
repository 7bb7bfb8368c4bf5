package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/infrastructure/config"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "gravekeeper.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrations_UpAndDown(t *testing.T) {
	db := openSQLite(t)

	version, _, err := MigrationVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	applied, err := MigrateUp(db)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = MigrateUp(db)
	require.NoError(t, err)
	assert.False(t, applied)

	version, dirty, err := MigrationVersion(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	var tables int
	require.NoError(t, db.DB.Get(&tables,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'plots', 'graves')`))
	assert.Equal(t, 3, tables)

	reverted, err := MigrateDown(db)
	require.NoError(t, err)
	assert.True(t, reverted)

	require.NoError(t, db.DB.Get(&tables,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'plots', 'graves')`))
	assert.Equal(t, 0, tables)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := openSQLite(t)
	_, err := MigrateUp(db)
	require.NoError(t, err)
	ctx := context.Background()

	err = db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plots (id, plot_number, section, created_at) VALUES ('p1', 'A-1', 'North', CURRENT_TIMESTAMP)`); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.DB.Get(&count, `SELECT COUNT(*) FROM plots`))
	assert.Equal(t, 0, count)
}

func TestHealthCheckAndInfo(t *testing.T) {
	db := openSQLite(t)

	assert.NoError(t, db.HealthCheck(context.Background()))
	info := db.GetConnectionInfo()
	assert.Equal(t, "sqlite3", info["driver"])
	assert.Equal(t, 1, info["max_open_connections"])
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
