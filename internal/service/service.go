package service

import (
	"context"
	"sync"
)

// TaskStore is the remote todos collection.
// All data API and database calls go through this interface.
type TaskStore interface {
	// ListTasks returns the rows visible to the caller, newest first.
	ListTasks(ctx context.Context, q TaskQuery) ([]Task, error)

	// InsertTask creates a row and returns it as stored.
	InsertTask(ctx context.Context, t NewTask) (Task, error)

	// UpdateTask applies a patch to the row with the given id.
	UpdateTask(ctx context.Context, id string, p TaskPatch) error

	// DeleteTask deletes the row with the given id.
	// Deleting an id that does not exist is not an error.
	DeleteTask(ctx context.Context, id string) error

	// DeleteTasks deletes every row whose id is in ids, in one call.
	DeleteTasks(ctx context.Context, ids []string) error
}

// Organizations is the auth service's organization namespace.
type Organizations interface {
	// ListOrganizations returns the caller's organizations in server order.
	ListOrganizations(ctx context.Context) ([]Organization, error)

	// FullOrganization returns the active organization with members,
	// or nil when no organization is active.
	FullOrganization(ctx context.Context) (*FullOrganization, error)

	// CreateOrganization creates an organization owned by the caller.
	CreateOrganization(ctx context.Context, name, slug string) (Organization, error)

	// SetActiveOrganization marks an organization active for the session.
	SetActiveOrganization(ctx context.Context, organizationID string) error
}

// Auth is the auth service's session and account surface.
// Credential checks and token issuance happen remotely.
type Auth interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*AuthSession, error)

	SignInEmail(ctx context.Context, email, password string) (User, error)
	SignUpEmail(ctx context.Context, req SignUp) (User, error)
	SignInAnonymous(ctx context.Context) (User, error)

	// SignInSocial returns the provider URL the browser must visit.
	SignInSocial(ctx context.Context, provider, callbackURL string) (string, error)

	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateUser(ctx context.Context, u ProfileUpdate) error
	ChangePassword(ctx context.Context, current, next string, revokeOthers bool) error
	ListSessions(ctx context.Context) ([]SessionInfo, error)
	RevokeSession(ctx context.Context, token string) error
}

// TaskSource is a read-only external task provider used for imports.
type TaskSource interface {
	// OpenTasks returns the open tasks of the named list, or of the
	// default list when name is empty.
	OpenTasks(ctx context.Context, listName string) ([]ImportedTask, error)
}

// Session is the read-only view of the current viewer that view-models
// are constructed with.
type Session interface {
	// CurrentUser returns the signed-in user, if any.
	CurrentUser() (User, bool)

	// IsLoading reports whether the session read is still in flight.
	IsLoading() bool
}

// LiveSession is a Session whose user can be replaced as requests
// resolve the auth state. The zero value is a loading, signed-out session.
type LiveSession struct {
	mu      sync.RWMutex
	user    *User
	settled bool
}

// NewLiveSession returns a settled session for u (nil means signed out).
func NewLiveSession(u *User) *LiveSession {
	s := &LiveSession{}
	s.Set(u)
	return s
}

// Set records the resolved user and marks the session settled.
func (s *LiveSession) Set(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	s.settled = true
}

// CurrentUser implements Session.
func (s *LiveSession) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// IsLoading implements Session.
func (s *LiveSession) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.settled
}
