// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"authdemo/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ErrRemote is a generic injected remote failure.
var ErrRemote = errors.New("remote unavailable")

// baseTime anchors fake created_at values.
var baseTime = time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)

// FakeTaskStore is an in-memory implementation of service.TaskStore.
// Rows are kept in insertion order; ListTasks returns newest first.
type FakeTaskStore struct {
	mu    sync.Mutex
	rows  []service.Task
	clock int

	// Calls counts remote calls by method name.
	Calls map[string]int

	// LastQuery is the query of the most recent ListTasks call.
	LastQuery service.TaskQuery

	// Error injection for testing
	ListErr       error
	InsertErr     error
	UpdateErr     error
	DeleteErr     error
	DeleteManyErr error
}

// NewFakeTaskStore creates an empty FakeTaskStore.
func NewFakeTaskStore() *FakeTaskStore {
	return &FakeTaskStore{Calls: make(map[string]int)}
}

// Seed adds a row as if another client had created it and returns it.
func (f *FakeTaskStore) Seed(title, userID string, completed, public bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Completed: completed,
		IsPublic:  public,
		UserID:    userID,
		CreatedAt: f.nextTime(),
	}
	f.rows = append(f.rows, t)
	return t
}

// Rows returns the stored rows newest first.
func (f *FakeTaskStore) Rows() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(false)
}

// CallCount returns how many times a method was called.
func (f *FakeTaskStore) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *FakeTaskStore) nextTime() time.Time {
	f.clock++
	return baseTime.Add(time.Duration(f.clock) * time.Minute)
}

func (f *FakeTaskStore) sorted(publicOnly bool) []service.Task {
	out := make([]service.Task, 0, len(f.rows))
	for _, t := range f.rows {
		if publicOnly && !t.IsPublic {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ListTasks implements service.TaskStore.
func (f *FakeTaskStore) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListTasks"]++
	f.LastQuery = q
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.sorted(q.PublicOnly), nil
}

// InsertTask implements service.TaskStore.
func (f *FakeTaskStore) InsertTask(ctx context.Context, nt service.NewTask) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["InsertTask"]++
	if f.InsertErr != nil {
		return service.Task{}, f.InsertErr
	}
	t := service.Task{
		ID:        uuid.NewString(),
		Title:     nt.Title,
		Completed: nt.Completed,
		IsPublic:  nt.IsPublic,
		UserID:    nt.UserID,
		CreatedAt: f.nextTime(),
	}
	f.rows = append(f.rows, t)
	return t, nil
}

// UpdateTask implements service.TaskStore.
func (f *FakeTaskStore) UpdateTask(ctx context.Context, id string, p service.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["UpdateTask"]++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		if p.Completed != nil {
			f.rows[i].Completed = *p.Completed
		}
		if p.IsPublic != nil {
			f.rows[i].IsPublic = *p.IsPublic
		}
	}
	return nil
}

// DeleteTask implements service.TaskStore.
func (f *FakeTaskStore) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["DeleteTask"]++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.remove(map[string]bool{id: true})
	return nil
}

// DeleteTasks implements service.TaskStore.
func (f *FakeTaskStore) DeleteTasks(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["DeleteTasks"]++
	if f.DeleteManyErr != nil {
		return f.DeleteManyErr
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	f.remove(set)
	return nil
}

func (f *FakeTaskStore) remove(ids map[string]bool) {
	kept := f.rows[:0]
	for _, t := range f.rows {
		if !ids[t.ID] {
			kept = append(kept, t)
		}
	}
	f.rows = kept
}

// FakeOrganizations is an in-memory implementation of service.Organizations.
type FakeOrganizations struct {
	mu     sync.Mutex
	orgs   []service.Organization
	active string
	userID string

	// Calls counts remote calls by method name.
	Calls map[string]int

	// Created records CreateOrganization arguments in order.
	Created []service.Organization

	// Activated records SetActiveOrganization arguments in order.
	Activated []string

	// Error injection for testing
	ListErr      error
	FullErr      error
	CreateErr    error
	SetActiveErr error
}

// NewFakeOrganizations creates an empty FakeOrganizations for userID.
func NewFakeOrganizations(userID string) *FakeOrganizations {
	return &FakeOrganizations{userID: userID, Calls: make(map[string]int)}
}

// AddOrganization adds an existing organization without activating it.
func (f *FakeOrganizations) AddOrganization(id, name, slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, service.Organization{ID: id, Name: name, Slug: slug, CreatedAt: baseTime})
}

// SetUserID changes the member reported by FullOrganization.
func (f *FakeOrganizations) SetUserID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID = id
}

// SetActive marks an organization active without counting a call.
func (f *FakeOrganizations) SetActive(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = id
}

// Active returns the active organization id.
func (f *FakeOrganizations) Active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// CallCount returns how many times a method was called.
func (f *FakeOrganizations) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

// ListOrganizations implements service.Organizations.
func (f *FakeOrganizations) ListOrganizations(ctx context.Context) ([]service.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListOrganizations"]++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]service.Organization, len(f.orgs))
	copy(out, f.orgs)
	return out, nil
}

// FullOrganization implements service.Organizations.
func (f *FakeOrganizations) FullOrganization(ctx context.Context) (*service.FullOrganization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["FullOrganization"]++
	if f.FullErr != nil {
		return nil, f.FullErr
	}
	for _, o := range f.orgs {
		if o.ID == f.active {
			return &service.FullOrganization{
				Organization: o,
				Members: []service.Member{{
					ID:             "member-" + o.ID,
					OrganizationID: o.ID,
					UserID:         f.userID,
					Role:           "owner",
					CreatedAt:      o.CreatedAt,
				}},
			}, nil
		}
	}
	return nil, nil
}

// CreateOrganization implements service.Organizations.
func (f *FakeOrganizations) CreateOrganization(ctx context.Context, name, slug string) (service.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["CreateOrganization"]++
	if f.CreateErr != nil {
		return service.Organization{}, f.CreateErr
	}
	o := service.Organization{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: baseTime}
	f.orgs = append(f.orgs, o)
	f.Created = append(f.Created, o)
	return o, nil
}

// SetActiveOrganization implements service.Organizations.
func (f *FakeOrganizations) SetActiveOrganization(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SetActiveOrganization"]++
	if f.SetActiveErr != nil {
		return f.SetActiveErr
	}
	for _, o := range f.orgs {
		if o.ID == id {
			f.active = id
			f.Activated = append(f.Activated, id)
			return nil
		}
	}
	return ErrNotFound
}
