package testutil

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"authdemo/internal/service"
)

// ErrInvalidCredentials is returned by FakeAuth for a bad email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type fakeAccount struct {
	password string
	user     service.User
}

// FakeAuth is an in-memory implementation of service.Auth.
type FakeAuth struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
	current  *service.AuthSession
	sessions []service.SessionInfo

	// Calls counts remote calls by method name.
	Calls map[string]int

	// ResetRequests records emails passed to RequestPasswordReset.
	ResetRequests []string

	// Error injection for testing
	GetSessionErr     error
	SignInErr         error
	SignUpErr         error
	SignOutErr        error
	UpdateErr         error
	ChangePasswordErr error
	RevokeErr         error
}

// NewFakeAuth creates a signed-out FakeAuth with no accounts.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{
		accounts: make(map[string]*fakeAccount),
		Calls:    make(map[string]int),
	}
}

// AddAccount registers an email account and returns its user.
func (f *FakeAuth) AddAccount(email, password, name string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: uuid.NewString(), Email: email, Name: name, CreatedAt: baseTime}
	f.accounts[email] = &fakeAccount{password: password, user: u}
	return u
}

// SignInAs starts a session for u without counting a call.
func (f *FakeAuth) SignInAs(u service.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start(u)
}

// CallCount returns how many times a method was called.
func (f *FakeAuth) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *FakeAuth) start(u service.User) {
	info := service.SessionInfo{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: baseTime,
		ExpiresAt: baseTime.AddDate(0, 0, 7),
		UserAgent: "fake",
	}
	f.current = &service.AuthSession{Session: info, User: u}
	f.sessions = append(f.sessions, info)
}

// GetSession implements service.Auth.
func (f *FakeAuth) GetSession(ctx context.Context) (*service.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["GetSession"]++
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	if f.current == nil {
		return nil, nil
	}
	s := *f.current
	return &s, nil
}

// SignInEmail implements service.Auth.
func (f *FakeAuth) SignInEmail(ctx context.Context, email, password string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignInEmail"]++
	if f.SignInErr != nil {
		return service.User{}, f.SignInErr
	}
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return service.User{}, ErrInvalidCredentials
	}
	f.start(acct.user)
	return acct.user, nil
}

// SignUpEmail implements service.Auth.
func (f *FakeAuth) SignUpEmail(ctx context.Context, req service.SignUp) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignUpEmail"]++
	if f.SignUpErr != nil {
		return service.User{}, f.SignUpErr
	}
	if _, exists := f.accounts[req.Email]; exists {
		return service.User{}, errors.New("user already exists")
	}
	u := service.User{
		ID:         uuid.NewString(),
		Email:      req.Email,
		Name:       req.Name,
		Company:    req.Company,
		Age:        req.Age,
		Newsletter: req.Newsletter,
		CreatedAt:  baseTime,
	}
	f.accounts[req.Email] = &fakeAccount{password: req.Password, user: u}
	f.start(u)
	return u, nil
}

// SignInAnonymous implements service.Auth.
func (f *FakeAuth) SignInAnonymous(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignInAnonymous"]++
	if f.SignInErr != nil {
		return service.User{}, f.SignInErr
	}
	u := service.User{ID: uuid.NewString(), Name: "Anonymous", IsAnonymous: true, CreatedAt: baseTime}
	f.start(u)
	return u, nil
}

// SignInSocial implements service.Auth.
func (f *FakeAuth) SignInSocial(ctx context.Context, provider, callbackURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignInSocial"]++
	if f.SignInErr != nil {
		return "", f.SignInErr
	}
	return "https://" + provider + ".example.com/authorize?redirect_uri=" + url.QueryEscape(callbackURL), nil
}

// SignOut implements service.Auth.
func (f *FakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignOut"]++
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.current = nil
	return nil
}

// RequestPasswordReset implements service.Auth.
func (f *FakeAuth) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["RequestPasswordReset"]++
	f.ResetRequests = append(f.ResetRequests, email)
	return nil
}

// ResetPassword implements service.Auth.
func (f *FakeAuth) ResetPassword(ctx context.Context, token, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ResetPassword"]++
	if token == "" {
		return errors.New("invalid token")
	}
	return nil
}

// UpdateUser implements service.Auth.
func (f *FakeAuth) UpdateUser(ctx context.Context, p service.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["UpdateUser"]++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if f.current == nil {
		return errors.New("unauthorized")
	}
	u := &f.current.User
	if p.Name != "" {
		u.Name = p.Name
	}
	u.Company = p.Company
	u.Age = p.Age
	u.Newsletter = p.Newsletter
	if acct, ok := f.accounts[u.Email]; ok {
		acct.user = *u
	}
	return nil
}

// ChangePassword implements service.Auth.
func (f *FakeAuth) ChangePassword(ctx context.Context, current, next string, revokeOthers bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ChangePassword"]++
	if f.ChangePasswordErr != nil {
		return f.ChangePasswordErr
	}
	if f.current == nil {
		return errors.New("unauthorized")
	}
	acct, ok := f.accounts[f.current.User.Email]
	if !ok || acct.password != current {
		return ErrInvalidCredentials
	}
	acct.password = next
	return nil
}

// ListSessions implements service.Auth.
func (f *FakeAuth) ListSessions(ctx context.Context) ([]service.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListSessions"]++
	if f.current == nil {
		return nil, errors.New("unauthorized")
	}
	var out []service.SessionInfo
	for _, s := range f.sessions {
		if s.UserID == f.current.User.ID {
			out = append(out, s)
		}
	}
	return out, nil
}

// RevokeSession implements service.Auth.
func (f *FakeAuth) RevokeSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["RevokeSession"]++
	if f.RevokeErr != nil {
		return f.RevokeErr
	}
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.Token != token {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
	return nil
}
