// Package backend wires the hosted platform clients into per-caller
// sessions and task stores.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"authdemo/internal/backend/dataapi"
	"authdemo/internal/backend/neonauth"
	"authdemo/internal/backend/postgres"
	"authdemo/internal/config"
	"authdemo/internal/service"
)

// Session is one caller's view of the auth service.
type Session interface {
	service.Auth
	service.Organizations

	// Cookies returns the auth cookies to store for the caller.
	Cookies() []*http.Cookie

	// TokenSource returns data API bearer tokens for the caller.
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// Backend opens sessions and task stores.
type Backend interface {
	// Session returns a session carrying the given auth cookies.
	Session(cookies []*http.Cookie) (Session, error)

	// TaskStore returns the todos collection as seen by user.
	// A nil user gets a guest store.
	TaskStore(ctx context.Context, s Session, user *service.User) (service.TaskStore, error)

	Close()
}

// Neon is the production Backend: the hosted auth service plus either the
// data API or a direct Postgres connection for tasks.
type Neon struct {
	auth    *neonauth.Client
	pg      *postgres.Store
	dataURL string
	table   string
	logger  *slog.Logger
}

// Open connects to the services named in cfg. The data API is preferred
// when both NEON_DATA_API_URL and DATABASE_URL are set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Neon, error) {
	auth, err := neonauth.New(cfg.AuthURL,
		neonauth.WithOrigin(cfg.PublicBaseURL),
		neonauth.WithLogger(logger.With("component", "neonauth")),
	)
	if err != nil {
		return nil, err
	}
	n := &Neon{
		auth:    auth,
		dataURL: cfg.DataAPIURL,
		table:   cfg.TasksTable,
		logger:  logger,
	}
	if n.dataURL == "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.TasksTable, logger.With("component", "postgres"))
		if err != nil {
			return nil, err
		}
		n.pg = pg
	}
	return n, nil
}

// Session implements Backend.
func (n *Neon) Session(cookies []*http.Cookie) (Session, error) {
	c, err := n.auth.WithCookies(cookies)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TaskStore implements Backend. Data API stores of signed-in users carry
// the user's bearer token; Postgres stores are scoped to the owner.
func (n *Neon) TaskStore(ctx context.Context, s Session, user *service.User) (service.TaskStore, error) {
	if n.pg != nil {
		if user == nil {
			return n.pg, nil
		}
		return n.pg.ForOwner(user.ID), nil
	}

	opts := []dataapi.Option{
		dataapi.WithTable(n.table),
		dataapi.WithLogger(n.logger.With("component", "dataapi")),
	}
	if user != nil && s != nil {
		opts = append(opts, dataapi.WithTokenSource(s.TokenSource(ctx)))
	}
	c, err := dataapi.New(n.dataURL, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the database pool, if any.
func (n *Neon) Close() {
	if n.pg != nil {
		n.pg.Close()
	}
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies reads cookies saved by SaveCookies. A missing file yields none.
func LoadCookies(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value})
	}
	return cookies, nil
}

// SaveCookies writes cookies to path with mode 0600. With no cookies the
// file is removed.
func SaveCookies(path string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	stored := make([]storedCookie, len(cookies))
	for i, c := range cookies {
		stored[i] = storedCookie{Name: c.Name, Value: c.Value}
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
