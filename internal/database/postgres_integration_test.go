package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"
)

// getPostgresTestConfig returns PostgreSQL config if available, nil otherwise.
// Set these environment variables to run PostgreSQL tests:
//
//	RACESIM_TEST_POSTGRES_HOST (default: localhost)
//	RACESIM_TEST_POSTGRES_PORT (default: 5432)
//	RACESIM_TEST_POSTGRES_USER (default: racesim)
//	RACESIM_TEST_POSTGRES_PASSWORD (default: racesim)
//	RACESIM_TEST_POSTGRES_DATABASE (default: racesim_test)
func getPostgresTestConfig() *Config {
	if os.Getenv("RACESIM_TEST_POSTGRES") == "" {
		return nil
	}

	cfg := DefaultPostgresConfig()
	cfg.User = "racesim"
	cfg.Password = "racesim"
	cfg.Database = "racesim_test"
	cfg.MaxOpenConns = 10
	cfg.ConnMaxLifetime = time.Minute

	if host := os.Getenv("RACESIM_TEST_POSTGRES_HOST"); host != "" {
		cfg.Host = host
	}
	if portStr := os.Getenv("RACESIM_TEST_POSTGRES_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &cfg.Port)
	}
	if user := os.Getenv("RACESIM_TEST_POSTGRES_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("RACESIM_TEST_POSTGRES_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if database := os.Getenv("RACESIM_TEST_POSTGRES_DATABASE"); database != "" {
		cfg.Database = database
	}

	return &Config{Driver: string(DialectPostgres), Postgres: cfg}
}

// skipIfNoPostgres skips the test if PostgreSQL is not available
func skipIfNoPostgres(t *testing.T) *Config {
	cfg := getPostgresTestConfig()
	if cfg == nil {
		t.Skip("Skipping PostgreSQL test: RACESIM_TEST_POSTGRES not set")
	}
	return cfg
}

// setupPostgresTestDB opens a PostgreSQL connection for testing and clears stored runs
func setupPostgresTestDB(t *testing.T, cfg *Config) *Database {
	db, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL database: %v", err)
	}

	if _, err := db.db.Exec("DELETE FROM runs"); err != nil {
		t.Logf("Note: Could not clean runs table: %v", err)
	}

	t.Cleanup(func() {
		db.db.Exec("DELETE FROM runs")
		db.Close()
	})

	return db
}

// TestPostgres_OpenWithConfig tests opening a PostgreSQL database
func TestPostgres_OpenWithConfig(t *testing.T) {
	cfg := skipIfNoPostgres(t)

	db, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer db.Close()

	var result int
	if err := db.db.QueryRow("SELECT 1").Scan(&result); err != nil {
		t.Fatalf("Failed to query PostgreSQL: %v", err)
	}
	if result != 1 {
		t.Errorf("Expected 1, got %d", result)
	}
}

// TestPostgres_ConnectionPoolSettings verifies connection pool is configured correctly
func TestPostgres_ConnectionPoolSettings(t *testing.T) {
	cfg := skipIfNoPostgres(t)

	db, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer db.Close()

	stats := db.db.Stats()
	if stats.MaxOpenConnections != cfg.Postgres.MaxOpenConns {
		t.Errorf("Expected MaxOpenConns %d, got %d",
			cfg.Postgres.MaxOpenConns, stats.MaxOpenConnections)
	}
}

// TestPostgres_ReturningID verifies inserted ids come back through RETURNING
func TestPostgres_ReturningID(t *testing.T) {
	cfg := skipIfNoPostgres(t)
	db := setupPostgresTestDB(t, cfg)
	ctx := context.Background()

	first, err := db.SaveRun(ctx, NewRunRecord(sampleResult(1, 5000)))
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	second, err := db.SaveRun(ctx, NewRunRecord(sampleResult(2, 5100)))
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	if second <= first {
		t.Errorf("ids not increasing: %d then %d", first, second)
	}
}

// TestPostgres_ConcurrentWrites tests concurrent database writes
func TestPostgres_ConcurrentWrites(t *testing.T) {
	cfg := skipIfNoPostgres(t)
	db := setupPostgresTestDB(t, cfg)
	ctx := context.Background()

	const numGoroutines = 10
	const writesPerGoroutine = 5

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*writesPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < writesPerGoroutine; j++ {
				seed := int64(workerID*100 + j)
				if _, err := db.SaveRun(ctx, NewRunRecord(sampleResult(seed, 5000))); err != nil {
					errs <- fmt.Errorf("worker %d: failed to save run %d: %v", workerID, seed, err)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != numGoroutines*writesPerGoroutine {
		t.Errorf("Expected %d runs, got %d", numGoroutines*writesPerGoroutine, len(runs))
	}
}
