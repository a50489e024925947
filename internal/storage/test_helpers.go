package storage

import (
	"context"
	"testing"
	"time"

	"github.com/coin-ledger/internal/config"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testPostgresConfig() *config.PostgresConfig {
	return &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "coin_ledger_test",
		User:           "ledger",
		Password:       "ledger_dev_password",
		MaxConnections: 5,
	}
}

// setupTestDB connects to the local test database and applies migrations.
// It skips the test in short mode or when Postgres is unreachable.
func setupTestDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := testPostgresConfig()
	db, err := NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	if err := RunMigrations(cfg.URL(), "../../migrations/postgres"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}
