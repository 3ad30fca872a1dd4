package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"authdemo/internal/backend"
	"authdemo/internal/backend/dataapi"
	"authdemo/internal/backend/googletasks"
	"authdemo/internal/backend/neonauth"
	"authdemo/internal/backend/postgres"
	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/orgsync"
	"authdemo/internal/service"
	"authdemo/internal/syncstate"
	"authdemo/internal/tasklist"
)

// syncScope is the sync guard key of the CLI. The guard lives in the
// config directory, so one scope per directory is enough.
const syncScope = "cli"

// ErrNotLoggedIn is returned when a command needs a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in (run: authdemo login)")

// Importer opens an external task source.
type Importer func(ctx context.Context, cfg *config.Config) (service.TaskSource, error)

// App carries the clients a command runs against.
type App struct {
	Backend  backend.Backend
	Session  backend.Session
	Guard    orgsync.Guard
	Importer Importer
	Logger   *slog.Logger

	sessionPath string
	closers     []func() error
}

// OpenApp connects to the services in cfg and restores the stored session.
func OpenApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, exitcode.Wrap(exitcode.UserError, fmt.Errorf("failed to create config directory: %w", err))
	}
	cookies, err := backend.LoadCookies(cfg.SessionPath())
	if err != nil {
		return nil, exitcode.Wrap(exitcode.AuthError, err)
	}
	be, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sess, err := be.Session(cookies)
	if err != nil {
		be.Close()
		return nil, err
	}
	guard, err := syncstate.OpenSQLite(cfg.SyncDBPath())
	if err != nil {
		be.Close()
		return nil, exitcode.Wrap(exitcode.UserError, err)
	}

	return &App{
		Backend: be,
		Session: sess,
		Guard:   guard,
		Importer: func(ctx context.Context, cfg *config.Config) (service.TaskSource, error) {
			c, err := googletasks.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Logger:      logger,
		sessionPath: cfg.SessionPath(),
		closers: []func() error{
			guard.Close,
			func() error { be.Close(); return nil },
		},
	}, nil
}

// Close stores the session cookies and releases the clients.
func (a *App) Close() error {
	var errs []error
	if a.sessionPath != "" {
		if err := backend.SaveCookies(a.sessionPath, a.Session.Cookies()); err != nil {
			errs = append(errs, fmt.Errorf("failed to save session: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// CurrentUser returns the signed-in user, or nil when signed out.
func (a *App) CurrentUser(ctx context.Context) (*service.User, error) {
	sess, err := a.Session.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return &sess.User, nil
}

// SignedIn returns the signed-in user after running the organization sync.
// Sync failures are logged and do not fail the command.
func (a *App) SignedIn(ctx context.Context) (service.User, error) {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return service.User{}, err
	}
	if user == nil {
		return service.User{}, ErrNotLoggedIn
	}
	a.sync(ctx, *user)
	return *user, nil
}

func (a *App) sync(ctx context.Context, user service.User) {
	syncer := orgsync.New(a.Session, a.Guard, orgsync.WithLogger(a.logger().With("component", "orgsync")))
	_, _ = syncer.Sync(ctx, syncScope, user)
}

// TaskList returns a loaded task list view-model for user (nil for a guest).
func (a *App) TaskList(ctx context.Context, user *service.User) (*tasklist.Model, error) {
	store, err := a.Backend.TaskStore(ctx, a.Session, user)
	if err != nil {
		return nil, err
	}
	m := tasklist.New(store, service.NewLiveSession(user),
		tasklist.WithLogger(a.logger().With("component", "tasklist")))
	if err := m.Load(ctx); err != nil {
		return m, err
	}
	return m, nil
}

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, ErrNotLoggedIn):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, neonauth.ErrUnauthorized),
		errors.Is(err, dataapi.ErrUnauthorized),
		errors.Is(err, dataapi.ErrForbidden),
		errors.Is(err, postgres.ErrForbidden):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, tasklist.ErrEmptyTitle),
		errors.Is(err, tasklist.ErrTaskNotFound),
		errors.Is(err, tasklist.ErrReadOnly),
		errors.Is(err, tasklist.ErrNotSignedIn):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
