package reportdb

import (
	"database/sql"
	"fmt"
)

// Migrate migrates db in an idempotent manner.
// If an error is returned, it's acceptable to delete the database and start over.
// The basic ERD is as follows:
//
//	┌────────────────────┐          ┌────────────────────┐         ┌────────────────────┐
//	│                    │         ╱│                    │        ╱│                    │
//	│       Report       │───────○──│    Test Result     │───────○─│     Test Label     │
//	│                    │         ╲│                    │        ╲│                    │
//	└────────────────────┘          └────────────────────┘         └────────────────────┘
//
// The gitSha ensures we can trace back to the version of the codebase that produced the schema.
func Migrate(db *sql.DB, gitSha string) error {
	// Lets several test binaries ingest into the same database file.
	// https://www.sqlite.org/pragma.html#pragma_busy_timeout
	_, err := db.Exec(`PRAGMA busy_timeout = 4000`)
	if err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}

	// https://www.sqlite.org/pragma.html#pragma_journal_mode
	_, err = db.Exec(`PRAGMA journal_mode = WAL`)
	if err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	if err != nil {
		return fmt.Errorf("pragma foreign_keys: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// If commit succeeded, rollback will return nil;
		// if a step failed, the returned error is more meaningful.
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL CHECK (length(created_at) > 0),
    git_sha TEXT NOT NULL CHECK (length(git_sha) > 0),
    UNIQUE(git_sha)
)`)
	if err != nil {
		return fmt.Errorf("create table schema_version: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_version(created_at, git_sha) VALUES (?, ?)
ON CONFLICT(git_sha) DO UPDATE SET git_sha=git_sha`, nowRFC3339(), gitSha)
	if err != nil {
		return fmt.Errorf("upsert schema_version with git sha %s: %w", gitSha, err)
	}

	_, err = tx.Exec(`CREATE TABLE IF NOT EXISTS report (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL CHECK ( length(source) > 0 ),
    git_sha TEXT NOT NULL CHECK ( length(git_sha) > 0 ),
    created_at TEXT NOT NULL CHECK (length(created_at) > 0),
    started_at TEXT,
    finished_at TEXT,
    selection TEXT NOT NULL DEFAULT ''
)`)
	if err != nil {
		return fmt.Errorf("create table report: %w", err)
	}

	_, err = tx.Exec(`CREATE TABLE IF NOT EXISTS test_result (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    package TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL CHECK ( length(name) > 0 ),
    started_at TEXT NOT NULL,
    finished_at TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    skip_reason TEXT NOT NULL DEFAULT '',
    error_count INTEGER NOT NULL DEFAULT 0,
    fk_report_id INTEGER,
    FOREIGN KEY(fk_report_id) REFERENCES report(id) ON DELETE CASCADE,
    UNIQUE(package,name,fk_report_id)
)`)
	if err != nil {
		return fmt.Errorf("create table test_result: %w", err)
	}

	_, err = tx.Exec(`CREATE TABLE IF NOT EXISTS test_label (
    label TEXT NOT NULL CHECK ( length(label) > 0 ),
    fk_test_id INTEGER NOT NULL,
    FOREIGN KEY(fk_test_id) REFERENCES test_result(id) ON DELETE CASCADE,
    PRIMARY KEY(label,fk_test_id)
)`)
	if err != nil {
		return fmt.Errorf("create table test_label: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_test_label_test ON test_label(fk_test_id)`)
	if err != nil {
		return fmt.Errorf("create index idx_test_label_test: %w", err)
	}

	return tx.Commit()
}
