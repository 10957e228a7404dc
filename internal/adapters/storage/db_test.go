package storage

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInitDBCreatesMembersTable tests that the schema contains the members table.
func TestInitDBCreatesMembersTable(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB() error: %v", err)
	}

	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='members'").Scan(&name)
	if err != nil {
		t.Fatalf("members table missing: %v", err)
	}
}

// TestInitDBIsIdempotent tests that running schema creation twice is safe.
func TestInitDBIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("first InitDB() error: %v", err)
	}
	if err := InitDB(db); err != nil {
		t.Fatalf("second InitDB() error: %v", err)
	}
}
