// Package postgres implements service.TaskStore directly against the todos
// table, for deployments that connect to the database instead of the data
// API. Row visibility rules are applied in the queries.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authdemo/internal/service"
)

// QueryTimeout is the timeout for one statement.
const QueryTimeout = 5 * time.Second

// ErrForbidden is returned for writes without an owner, or on behalf of
// another user.
var ErrForbidden = errors.New("forbidden")

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a task store scoped to one owner, or to guests when the owner
// is empty.
type Store struct {
	db     DB
	pool   *pgxpool.Pool
	table  string
	owner  string
	logger *slog.Logger
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn, table string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	s := NewStore(pool, table, logger)
	s.pool = pool
	return s, nil
}

// NewStore creates a guest-scoped store over db.
func NewStore(db DB, table string, logger *slog.Logger) *Store {
	if table == "" {
		table = "todos"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, table: table, logger: logger}
}

// ForOwner returns a copy of s scoped to userID.
func (s *Store) ForOwner(userID string) *Store {
	cp := *s
	cp.owner = userID
	return &cp
}

// Close releases the connection pool opened by Open.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

const selectColumns = "id::text, title, completed, is_public, user_id::text, created_at"

func (s *Store) listSQL(q service.TaskQuery) (string, []any) {
	var (
		where string
		args  []any
	)
	switch {
	case q.PublicOnly || s.owner == "":
		where = "is_public"
	default:
		where = "(user_id::text = $1 OR is_public)"
		args = append(args, s.owner)
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC", selectColumns, s.ident(), where), args
}

func (s *Store) insertSQL(t service.NewTask) (string, []any) {
	return fmt.Sprintf(
			"INSERT INTO %s (title, user_id, completed, is_public) VALUES ($1, $2, $3, $4) RETURNING %s",
			s.ident(), selectColumns),
		[]any{t.Title, t.UserID, t.Completed, t.IsPublic}
}

func (s *Store) updateSQL(id string, p service.TaskPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	if p.Completed != nil {
		args = append(args, *p.Completed)
		sets = append(sets, fmt.Sprintf("completed = $%d", len(args)))
	}
	if p.IsPublic != nil {
		args = append(args, *p.IsPublic)
		sets = append(sets, fmt.Sprintf("is_public = $%d", len(args)))
	}
	args = append(args, id, s.owner)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id::text = $%d AND user_id::text = $%d",
		s.ident(), strings.Join(sets, ", "), len(args)-1, len(args)), args
}

func (s *Store) deleteSQL(ids []string) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE id::text = ANY($1) AND user_id::text = $2", s.ident()),
		[]any{ids, s.owner}
}

func scanTask(row pgx.CollectableRow) (service.Task, error) {
	var t service.Task
	err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.IsPublic, &t.UserID, &t.CreatedAt)
	return t, err
}

// ListTasks implements service.TaskStore.
func (s *Store) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	sql, args := s.listSQL(q)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, scanTask)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return tasks, nil
}

// InsertTask implements service.TaskStore.
func (s *Store) InsertTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	if s.owner == "" || t.UserID != s.owner {
		return service.Task{}, ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	sql, args := s.insertSQL(t)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return service.Task{}, fmt.Errorf("insert todo: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if err != nil {
		return service.Task{}, fmt.Errorf("insert todo: %w", err)
	}
	return created, nil
}

// UpdateTask implements service.TaskStore. Rows owned by someone else are
// left alone.
func (s *Store) UpdateTask(ctx context.Context, id string, p service.TaskPatch) error {
	if s.owner == "" {
		return ErrForbidden
	}
	if p.Empty() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	sql, args := s.updateSQL(id, p)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	s.logger.Debug("updated todo", "id", id, "rows", tag.RowsAffected())
	return nil
}

// DeleteTask implements service.TaskStore.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.DeleteTasks(ctx, []string{id})
}

// DeleteTasks implements service.TaskStore.
func (s *Store) DeleteTasks(ctx context.Context, ids []string) error {
	if s.owner == "" {
		return ErrForbidden
	}
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	sql, args := s.deleteSQL(ids)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete todos: %w", err)
	}
	s.logger.Debug("deleted todos", "requested", len(ids), "rows", tag.RowsAffected())
	return nil
}
