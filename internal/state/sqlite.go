package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps cursors in a SQLite database. It suits hosts where
// many checks run in parallel against the same state.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: failed to create directory %s: %w", dir, err)
	}

	// Swap reads then writes; an immediate transaction takes the write lock
	// up front so parallel checks wait on busy_timeout instead of failing
	// with SQLITE_BUSY when they try to upgrade a read lock.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("state: failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate creates the time_states table if it doesn't exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS time_states (
			state_key  TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("state: migration failed: %w", err)
	}
	return nil
}

// Swap implements Store.
func (s *SQLiteStore) Swap(ctx context.Context, key, value string) (string, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("state: begin failed: %w", err)
	}
	defer tx.Rollback()

	var previous string
	ok := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM time_states WHERE state_key = ?`, key).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		ok = false
	} else if err != nil {
		return "", false, fmt.Errorf("state: query failed: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_states (state_key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(state_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", false, fmt.Errorf("state: upsert failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("state: commit failed: %w", err)
	}
	return previous, ok, nil
}

// All implements Store.
func (s *SQLiteStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state_key, value FROM time_states`)
	if err != nil {
		return nil, fmt.Errorf("state: query failed: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("state: scan failed: %w", err)
		}
		entries[k] = v
	}
	return entries, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_states WHERE state_key = ?`, key); err != nil {
		return fmt.Errorf("state: delete failed: %w", err)
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
