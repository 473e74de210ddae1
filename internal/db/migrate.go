package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run
// on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id             TEXT PRIMARY KEY,
		custom_target_hours REAL NOT NULL DEFAULT 0,
		last_modified       TEXT,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		user_id        TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		id             TEXT NOT NULL,
		check_in       TEXT NOT NULL,
		check_out      TEXT,
		type           TEXT NOT NULL CHECK(type IN ('work','lunch')),
		duration_sec   INTEGER NOT NULL DEFAULT 0 CHECK(duration_sec >= 0),
		is_active      INTEGER NOT NULL DEFAULT 0,
		has_auto_lunch INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_check_in ON sessions(user_id, check_in)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions(user_id, is_active)`,
	// v2: manual entries are tracked separately from timer sessions.
	`ALTER TABLE sessions ADD COLUMN is_manual_entry INTEGER NOT NULL DEFAULT 0`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
		email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name  TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth_session (
		id           INTEGER PRIMARY KEY CHECK(id = 1),
		user_id      TEXT NOT NULL,
		username     TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		token        TEXT NOT NULL DEFAULT '',
		provider     TEXT NOT NULL,
		signed_in_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}
