package storage

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies the SQL files under a migrations directory
type Migrator struct {
	databaseURL string
	sourceURL   string
}

// NewMigrator creates a migrator for the given database and directory
func NewMigrator(databaseURL, migrationsPath string) *Migrator {
	return &Migrator{
		databaseURL: databaseURL,
		sourceURL:   fmt.Sprintf("file://%s", migrationsPath),
	}
}

func (m *Migrator) run(op string, fn func(*migrate.Migrate) error) error {
	mg, err := migrate.New(m.sourceURL, m.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		_, _ = mg.Close() // nolint:errcheck // cleanup in defer
	}()

	if err := fn(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	return m.run("run migrations", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down rolls back the last migration
func (m *Migrator) Down() error {
	return m.run("rollback migration", func(mg *migrate.Migrate) error { return mg.Steps(-1) })
}

// Force sets the version without running anything, clearing the dirty flag
func (m *Migrator) Force(version int) error {
	return m.run("force version", func(mg *migrate.Migrate) error { return mg.Force(version) })
}

// Version returns the current migration version
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	err = m.run("get migration version", func(mg *migrate.Migrate) error {
		var vErr error
		version, dirty, vErr = mg.Version()
		if errors.Is(vErr, migrate.ErrNilVersion) {
			return nil
		}
		return vErr
	})
	return version, dirty, err
}

// RunMigrations applies all pending migrations
func RunMigrations(databaseURL, migrationsPath string) error {
	return NewMigrator(databaseURL, migrationsPath).Up()
}
