package syncstate

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a guard store that survives process restarts.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite creates or opens the guard database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin implements orgsync.Guard. The upsert only changes a row whose
// recorded user differs, so the affected row count is the answer.
func (s *SQLite) Begin(ctx context.Context, scope, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO org_sync (scope, user_id, checked_at) VALUES (?, ?, ?)
		ON CONFLICT (scope) DO UPDATE
		SET user_id = excluded.user_id, checked_at = excluded.checked_at
		WHERE org_sync.user_id <> excluded.user_id`,
		scope, userID, s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("record sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record sync: %w", err)
	}
	return n > 0, nil
}

// Reset implements orgsync.Guard.
func (s *SQLite) Reset(ctx context.Context, scope string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM org_sync WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("reset sync: %w", err)
	}
	return nil
}
