package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the SQLite database schema.
// Schema creation is idempotent and tolerant of an already-existing schema;
// it runs once at process start.
// PRE: db is a valid database connection
// POST: members table exists, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		membership_id TEXT UNIQUE,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		expiry TEXT NOT NULL,
		photo_path TEXT,
		member_url TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		reminded_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_members_expiry ON members(expiry);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
