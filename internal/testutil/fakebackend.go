package testutil

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"authdemo/internal/backend"
	"authdemo/internal/service"
)

// SessionCookie is the cookie FakeSession reports while signed in.
const SessionCookie = "fake.session_token"

// FakeSession joins a FakeAuth and a FakeOrganizations into a
// backend.Session.
type FakeSession struct {
	*FakeAuth
	*FakeOrganizations
}

// Cookies implements backend.Session.
func (s *FakeSession) Cookies() []*http.Cookie {
	s.FakeAuth.mu.Lock()
	defer s.FakeAuth.mu.Unlock()
	if s.FakeAuth.current == nil {
		return nil
	}
	return []*http.Cookie{{Name: SessionCookie, Value: s.FakeAuth.current.Session.Token}}
}

// TokenSource implements backend.Session.
func (s *FakeSession) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fake-jwt", TokenType: "Bearer"})
}

// FakeBackend is an in-memory backend.Backend. Every session shares the
// same auth, organizations and task store.
type FakeBackend struct {
	Auth  *FakeAuth
	Orgs  *FakeOrganizations
	Store *FakeTaskStore

	// Error injection for testing
	SessionErr error
	StoreErr   error

	mu      sync.Mutex
	cookies [][]*http.Cookie
	viewers []*service.User
	closed  bool
}

// NewFakeBackend creates a FakeBackend around fresh fakes. The
// organizations belong to userID.
func NewFakeBackend(userID string) *FakeBackend {
	return &FakeBackend{
		Auth:  NewFakeAuth(),
		Orgs:  NewFakeOrganizations(userID),
		Store: NewFakeTaskStore(),
	}
}

// Session implements backend.Backend.
func (b *FakeBackend) Session(cookies []*http.Cookie) (backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SessionErr != nil {
		return nil, b.SessionErr
	}
	b.cookies = append(b.cookies, cookies)
	return &FakeSession{FakeAuth: b.Auth, FakeOrganizations: b.Orgs}, nil
}

// TaskStore implements backend.Backend.
func (b *FakeBackend) TaskStore(ctx context.Context, s backend.Session, user *service.User) (service.TaskStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.StoreErr != nil {
		return nil, b.StoreErr
	}
	b.viewers = append(b.viewers, user)
	return b.Store, nil
}

// Close implements backend.Backend.
func (b *FakeBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// SessionCookies returns the cookies passed to every Session call.
func (b *FakeBackend) SessionCookies() [][]*http.Cookie {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]*http.Cookie(nil), b.cookies...)
}

// StoreOpens returns how many task stores were opened.
func (b *FakeBackend) StoreOpens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.viewers)
}

// Closed reports whether Close was called.
func (b *FakeBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
