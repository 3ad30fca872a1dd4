// Package tasklist holds the task list view-model: an in-memory, ordered
// mirror of the remote todos collection with optimistic mutations.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"authdemo/internal/service"
)

// Banner messages shown after a failed remote call.
const (
	MsgLoadFailed   = "Failed to load todos"
	MsgAddFailed    = "Failed to add todo"
	MsgUpdateFailed = "Failed to update todo"
	MsgShareFailed  = "Failed to update todo visibility"
	MsgDeleteFailed = "Failed to delete todo"
	MsgClearFailed  = "Failed to clear completed todos"
)

var (
	// ErrEmptyTitle is returned by Add when the title is blank.
	ErrEmptyTitle = errors.New("title required")

	// ErrNotSignedIn is returned by mutations when there is no viewer.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrReadOnly is returned when the viewer may not change visibility.
	ErrReadOnly = errors.New("anonymous sessions cannot share tasks")

	// ErrTaskNotFound is returned when the id is not in the local list.
	ErrTaskNotFound = errors.New("task not found")
)

// Observer receives remote call outcomes and rollbacks.
type Observer interface {
	RemoteCall(op string, err error)
	Rollback(op string)
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithObserver sets the remote call observer.
func WithObserver(o Observer) Option {
	return func(m *Model) { m.observer = o }
}

// Model is the task list view-model.
//
// The mutex guards local state only. Remote calls run unlocked, so two
// in-flight mutations on the same task settle as last response wins.
type Model struct {
	store    service.TaskStore
	session  service.Session
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	tasks   []service.Task
	loading bool
	adding  bool
	draft   string
	filter  Filter
	errMsg  string
}

// New creates a view-model over store for the viewer in session.
func New(store service.TaskStore, session service.Session, opts ...Option) *Model {
	m := &Model{
		store:   store,
		session: session,
		logger:  slog.Default(),
		filter:  FilterAll,
		loading: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the local list with the rows visible to the viewer.
// Guests only see public rows.
func (m *Model) Load(ctx context.Context) error {
	_, authenticated := m.session.CurrentUser()

	m.mu.Lock()
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	tasks, err := m.store.ListTasks(ctx, service.TaskQuery{PublicOnly: !authenticated})
	m.report("load", err)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.tasks = nil
		m.errMsg = MsgLoadFailed
		m.logger.Error("Error fetching todos", "error", err)
		return fmt.Errorf("load todos: %w", err)
	}
	m.tasks = tasks
	return nil
}

// Add inserts a task and prepends the stored row once the server confirms.
func (m *Model) Add(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	user, ok := m.session.CurrentUser()
	if !ok || user.ID == "" {
		return ErrNotSignedIn
	}

	m.mu.Lock()
	m.adding = true
	m.errMsg = ""
	m.mu.Unlock()

	created, err := m.store.InsertTask(ctx, service.NewTask{
		Title:     title,
		UserID:    user.ID,
		Completed: false,
	})
	m.report("add", err)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.adding = false
	if err != nil {
		m.errMsg = MsgAddFailed
		m.logger.Error("Error adding todo", "error", err)
		return fmt.Errorf("add todo: %w", err)
	}
	m.tasks = append([]service.Task{created}, m.tasks...)
	m.draft = ""
	return nil
}

// Toggle flips completed locally, then persists it. A failed update
// reverts the flip.
func (m *Model) Toggle(ctx context.Context, id string) error {
	if err := m.requireViewer(false); err != nil {
		return err
	}
	prev, ok := m.find(id)
	if !ok {
		return ErrTaskNotFound
	}
	next := !prev.Completed
	return m.optimistic(ctx, txn{
		op:      "toggle",
		failure: MsgUpdateFailed,
		apply: func(cur []service.Task) []service.Task {
			return setCompleted(cur, id, next)
		},
		revert: func(cur, _ []service.Task) []service.Task {
			return setCompleted(cur, id, prev.Completed)
		},
		remote: func(ctx context.Context) error {
			return m.store.UpdateTask(ctx, id, service.TaskPatch{Completed: &next})
		},
	})
}

// SetPublic flips is_public locally, then persists it. Only registered
// viewers may share tasks.
func (m *Model) SetPublic(ctx context.Context, id string) error {
	if err := m.requireViewer(true); err != nil {
		return err
	}
	prev, ok := m.find(id)
	if !ok {
		return ErrTaskNotFound
	}
	next := !prev.IsPublic
	return m.optimistic(ctx, txn{
		op:      "set_public",
		failure: MsgShareFailed,
		apply: func(cur []service.Task) []service.Task {
			return setPublic(cur, id, next)
		},
		revert: func(cur, _ []service.Task) []service.Task {
			return setPublic(cur, id, prev.IsPublic)
		},
		remote: func(ctx context.Context) error {
			return m.store.UpdateTask(ctx, id, service.TaskPatch{IsPublic: &next})
		},
	})
}

// Delete removes a task locally, then remotely. A failed delete restores
// the whole list as it was before the call. Deleting an id that is not in
// the list does nothing.
func (m *Model) Delete(ctx context.Context, id string) error {
	if err := m.requireViewer(false); err != nil {
		return err
	}
	if _, ok := m.find(id); !ok {
		m.logger.Debug("delete of unknown todo ignored", "id", id)
		return nil
	}
	return m.optimistic(ctx, txn{
		op:      "delete",
		failure: MsgDeleteFailed,
		apply: func(cur []service.Task) []service.Task {
			return removeIDs(cur, map[string]bool{id: true})
		},
		revert: restoreSnapshot,
		remote: func(ctx context.Context) error {
			return m.store.DeleteTask(ctx, id)
		},
	})
}

// ClearCompleted deletes every completed task with one remote call.
// With nothing completed it does nothing.
func (m *Model) ClearCompleted(ctx context.Context) error {
	if err := m.requireViewer(false); err != nil {
		return err
	}
	m.mu.Lock()
	var ids []string
	for _, t := range m.tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	m.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return m.optimistic(ctx, txn{
		op:      "clear_completed",
		failure: MsgClearFailed,
		apply: func(cur []service.Task) []service.Task {
			return removeIDs(cur, set)
		},
		revert: restoreSnapshot,
		remote: func(ctx context.Context) error {
			return m.store.DeleteTasks(ctx, ids)
		},
	})
}

// txn is one optimistic local transaction around a remote call.
type txn struct {
	op      string
	failure string
	apply   func(cur []service.Task) []service.Task
	revert  func(cur, snapshot []service.Task) []service.Task
	remote  func(ctx context.Context) error
}

func (m *Model) optimistic(ctx context.Context, t txn) error {
	m.mu.Lock()
	m.errMsg = ""
	snapshot := m.tasks
	m.tasks = t.apply(clone(snapshot))
	m.mu.Unlock()

	err := t.remote(ctx)
	m.report(t.op, err)
	if err == nil {
		return nil
	}

	m.mu.Lock()
	m.tasks = t.revert(clone(m.tasks), snapshot)
	m.errMsg = t.failure
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.Rollback(t.op)
	}
	m.logger.Error("Remote update failed, reverted", "op", t.op, "error", err)
	return fmt.Errorf("%s: %w", t.op, err)
}

func (m *Model) report(op string, err error) {
	if m.observer != nil {
		m.observer.RemoteCall(op, err)
	}
}

func (m *Model) requireViewer(registered bool) error {
	user, ok := m.session.CurrentUser()
	if !ok {
		return ErrNotSignedIn
	}
	if registered && user.IsAnonymous {
		return ErrReadOnly
	}
	return nil
}

func (m *Model) find(id string) (service.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

func restoreSnapshot(_, snapshot []service.Task) []service.Task {
	return clone(snapshot)
}

func clone(tasks []service.Task) []service.Task {
	if tasks == nil {
		return nil
	}
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}

func setCompleted(tasks []service.Task, id string, v bool) []service.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Completed = v
		}
	}
	return tasks
}

func setPublic(tasks []service.Task, id string, v bool) []service.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].IsPublic = v
		}
	}
	return tasks
}

func removeIDs(tasks []service.Task, ids map[string]bool) []service.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if !ids[t.ID] {
			out = append(out, t)
		}
	}
	return out
}
