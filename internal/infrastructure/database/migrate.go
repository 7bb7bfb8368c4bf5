package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// newMigrator builds a migrate instance over the embedded SQL files.
// It is not closed by callers: closing it would also close db.
func newMigrator(db *DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	var driver migratedb.Driver
	switch db.Driver() {
	case "postgres":
		driver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("migrations are not supported for driver %q", db.Driver())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver(), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. It reports false when the
// schema was already current.
func MigrateUp(db *DB) (bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return false, err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("migration up failed: %w", err)
	}
	return true, nil
}

// MigrateDown reverts every applied migration
func MigrateDown(db *DB) (bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return false, err
	}
	if err := m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("migration down failed: %w", err)
	}
	return true, nil
}

// MigrationVersion returns the applied version. A fresh database reports 0.
func MigrationVersion(db *DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}
