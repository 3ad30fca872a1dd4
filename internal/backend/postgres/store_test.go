package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authdemo/internal/service"
)

type execCall struct {
	sql  string
	args []any
}

type recordingDB struct {
	execs []execCall
}

func (d *recordingDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("query not expected")
}

func (d *recordingDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (d *recordingDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func TestListSQL(t *testing.T) {
	guest := NewStore(&recordingDB{}, "", nil)
	sql, args := guest.listSQL(service.TaskQuery{})
	assert.Equal(t,
		`SELECT id::text, title, completed, is_public, user_id::text, created_at FROM "todos" WHERE is_public ORDER BY created_at DESC`,
		sql)
	assert.Empty(t, args)

	owner := guest.ForOwner("u1")
	sql, args = owner.listSQL(service.TaskQuery{})
	assert.Contains(t, sql, "WHERE (user_id::text = $1 OR is_public)")
	assert.Equal(t, []any{"u1"}, args)

	sql, args = owner.listSQL(service.TaskQuery{PublicOnly: true})
	assert.Contains(t, sql, "WHERE is_public ORDER BY")
	assert.Empty(t, args)
}

func TestUpdateSQL(t *testing.T) {
	s := NewStore(&recordingDB{}, "tasks", nil).ForOwner("u1")
	done := true
	public := false

	sql, args := s.updateSQL("t1", service.TaskPatch{Completed: &done})
	assert.Equal(t, `UPDATE "tasks" SET completed = $1 WHERE id::text = $2 AND user_id::text = $3`, sql)
	assert.Equal(t, []any{true, "t1", "u1"}, args)

	sql, args = s.updateSQL("t1", service.TaskPatch{Completed: &done, IsPublic: &public})
	assert.Equal(t, `UPDATE "tasks" SET completed = $1, is_public = $2 WHERE id::text = $3 AND user_id::text = $4`, sql)
	assert.Equal(t, []any{true, false, "t1", "u1"}, args)
}

func TestInsertSQL(t *testing.T) {
	s := NewStore(&recordingDB{}, "", nil)
	sql, args := s.insertSQL(service.NewTask{Title: "x", UserID: "u1"})
	assert.Contains(t, sql, `INSERT INTO "todos" (title, user_id, completed, is_public) VALUES ($1, $2, $3, $4) RETURNING`)
	assert.Equal(t, []any{"x", "u1", false, false}, args)
}

func TestTableNameIsQuoted(t *testing.T) {
	s := NewStore(&recordingDB{}, `todos"; DROP TABLE x; --`, nil)
	assert.Equal(t, `"todos""; DROP TABLE x; --"`, s.ident())
}

func TestWritesRequireOwner(t *testing.T) {
	db := &recordingDB{}
	guest := NewStore(db, "", nil)
	ctx := context.Background()
	done := true

	_, err := guest.InsertTask(ctx, service.NewTask{Title: "x", UserID: "u1"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, guest.UpdateTask(ctx, "t1", service.TaskPatch{Completed: &done}), ErrForbidden)
	assert.ErrorIs(t, guest.DeleteTask(ctx, "t1"), ErrForbidden)

	_, err = guest.ForOwner("u2").InsertTask(ctx, service.NewTask{Title: "x", UserID: "u1"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, db.execs)
}

func TestDeleteTasksScopedToOwner(t *testing.T) {
	db := &recordingDB{}
	s := NewStore(db, "", nil).ForOwner("u1")

	require.NoError(t, s.DeleteTasks(context.Background(), []string{"a", "b"}))
	require.NoError(t, s.DeleteTasks(context.Background(), nil))

	require.Len(t, db.execs, 1)
	assert.Equal(t, `DELETE FROM "todos" WHERE id::text = ANY($1) AND user_id::text = $2`, db.execs[0].sql)
	assert.Equal(t, []any{[]string{"a", "b"}, "u1"}, db.execs[0].args)
}
