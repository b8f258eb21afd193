package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/trezcool/presence/storage/database"
)

// PrepareDB opens the database at TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when the variable is not set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.OpenURL(ctx, url)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	q := "TRUNCATE attendance_entries, students, schedule_slots, calendar_events, semester_overrides"
	if _, err = db.ExecContext(ctx, q); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}
