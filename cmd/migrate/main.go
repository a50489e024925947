// Package main provides a CLI tool for running database migrations.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/coin-ledger/internal/config"
	"github.com/coin-ledger/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force")
		path   = flag.String("path", "migrations/postgres", "Migrations directory")
		force  = flag.Int("version", -1, "Version to force (with -action force)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := run(storage.NewMigrator(cfg.Database.Postgres.URL(), *path), *action, *force); err != nil {
		log.Fatalf("Postgres migration failed: %v", err)
	}
}

func run(m *storage.Migrator, action string, forceVersion int) error {
	switch action {
	case "up":
		log.Println("Running Postgres migrations...")
		if err := m.Up(); err != nil {
			return err
		}
		log.Println("Postgres migrations completed successfully")

	case "down":
		log.Println("Rolling back Postgres migration...")
		if err := m.Down(); err != nil {
			return err
		}
		log.Println("Postgres migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Printf("Current Postgres migration version: %d (dirty: %v)", version, dirty)

	case "force":
		if forceVersion < 0 {
			return fmt.Errorf("force needs -version")
		}
		if err := m.Force(forceVersion); err != nil {
			return err
		}
		log.Printf("Postgres migration version forced to %d", forceVersion)

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}
