package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/buildcrew/workforce-backend/internal/pkg/database"
)

// TestDatabaseSetup holds a migrated test database connection.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies migrations.
func NewTestDatabase() (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DATABASE_URL is not set")
	}

	if err := database.RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// TruncateAllTables removes all rows from every table.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"activity_logs",
		"payroll_automation_state",
		"payroll_adjustments",
		"payroll_estimations",
		"attendance_records",
		"employees",
		"sites",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection.
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

// setupTestDatabase skips the test when no database is configured.
func setupTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	setup, err := NewTestDatabase()
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}
	if err := setup.TruncateAllTables(context.Background()); err != nil {
		setup.Close()
		t.Fatalf("failed to truncate tables: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}
