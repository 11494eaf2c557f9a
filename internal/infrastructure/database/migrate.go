package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/migrations"
)

// ErrNoChange is returned when there is nothing to migrate.
var ErrNoChange = migrate.ErrNoChange

// MigrateUp applies every pending migration.
func (db *DB) MigrateUp(ctx context.Context) error {
	m, err := db.newMigrator()
	if err != nil {
		return err
	}
	defer stopOnCancel(ctx, m)()
	if err := m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown reverts every applied migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	m, err := db.newMigrator()
	if err != nil {
		return err
	}
	defer stopOnCancel(ctx, m)()
	if err := m.Down(); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version and whether the last
// migration left the schema dirty. Version 0 means no migration is applied.
func (db *DB) MigrationVersion(ctx context.Context) (uint, bool, error) {
	m, err := db.newMigrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator binds the embedded migrations for the connection's driver to
// the open pool. The migrator is never closed since that would close the
// pool it shares.
func (db *DB) newMigrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, db.driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	var driver migratedb.Driver
	switch db.driver {
	case config.DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	case config.DriverPostgres:
		driver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", db.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.driver, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// stopOnCancel asks m to stop after the current migration once ctx is
// cancelled. The returned func releases the watch.
func stopOnCancel(ctx context.Context, m *migrate.Migrate) func() bool {
	return context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
}
