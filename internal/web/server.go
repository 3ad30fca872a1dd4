// Package web serves the page/router shell: server-rendered pages over the
// auth client, the organization sync and the task list view-model.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"authdemo/internal/backend"
	"authdemo/internal/config"
	"authdemo/internal/metrics"
	"authdemo/internal/orgsync"
	"authdemo/internal/service"
	"authdemo/internal/syncstate"
	"authdemo/internal/tasklist"
)

const (
	// SessionName is the browser session cookie name.
	SessionName = "authdemo"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	sessionMaxAge = 30 * 24 * 60 * 60

	// idleTTL is how long an unused browser's task list and sync record
	// are kept; the browser cookie expires after the same time.
	idleTTL = sessionMaxAge * time.Second

	sweepInterval = time.Minute
)

func init() {
	gob.Register(map[string]string{})
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithGuard sets the organization sync guard.
func WithGuard(g orgsync.Guard) Option {
	return func(s *Server) { s.guard = g }
}

// taskView is a signed-in user's task list in one browser, kept across
// requests. Its store is bound to that browser's auth session.
type taskView struct {
	model *tasklist.Model
	live  *service.LiveSession
	used  time.Time
}

type viewKey struct {
	browserID string
	userID    string
}

// Server is the HTTP shell.
type Server struct {
	backend backend.Backend
	store   sessions.Store
	ui      config.UI
	baseURL string
	guard   orgsync.Guard
	metrics *metrics.Metrics
	logger  *slog.Logger
	pages   *pages

	mu        sync.Mutex
	views     map[viewKey]*taskView
	now       func() time.Time
	nextSweep time.Time
}

// New creates a Server. The session secret signs and encrypts the browser
// session cookie.
func New(be backend.Backend, cfg *config.Config, opts ...Option) (*Server, error) {
	if len(cfg.SessionSecret) < config.MinSessionSecret {
		return nil, config.ErrWeakSecret
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	blockKey := sha256.Sum256([]byte("authdemo/session/" + cfg.SessionSecret))
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret), blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.PublicBaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		backend: be,
		store:   store,
		ui:      cfg.UI,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		pages:   p,
		views:   make(map[viewKey]*taskView),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.guard == nil {
		s.guard = syncstate.NewMemory(syncstate.WithTTL(idleTTL))
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	app := r.NewRoute().Subrouter()
	app.Use(s.instrument, s.resolve)

	app.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	app.HandleFunc("/iframe-test", s.handleIframe).Methods(http.MethodGet)

	app.HandleFunc("/auth/social/{provider}", s.handleSocial).Methods(http.MethodPost)
	app.HandleFunc("/auth/{pathname}", s.handleAuthPage).Methods(http.MethodGet)
	app.HandleFunc("/auth/{pathname}", s.handleAuthSubmit).Methods(http.MethodPost)

	app.HandleFunc("/dashboard", s.signedIn(s.handleDashboard)).Methods(http.MethodGet)
	app.HandleFunc("/dashboard/tasks", s.signedIn(s.handleAddTask)).Methods(http.MethodPost)
	app.HandleFunc("/dashboard/tasks/{id}/toggle", s.signedIn(s.handleToggleTask)).Methods(http.MethodPost)
	app.HandleFunc("/dashboard/tasks/{id}/public", s.signedIn(s.handlePublicTask)).Methods(http.MethodPost)
	app.HandleFunc("/dashboard/tasks/{id}/delete", s.signedIn(s.handleDeleteTask)).Methods(http.MethodPost)
	app.HandleFunc("/dashboard/clear-completed", s.signedIn(s.handleClearCompleted)).Methods(http.MethodPost)
	app.HandleFunc("/dashboard/dismiss-error", s.signedIn(s.handleDismissError)).Methods(http.MethodPost)

	app.HandleFunc("/account", s.signedIn(s.handleAccount)).Methods(http.MethodGet)
	app.HandleFunc("/account/{view}", s.signedIn(s.handleAccount)).Methods(http.MethodGet)
	app.HandleFunc("/account/settings", s.signedIn(s.handleUpdateSettings)).Methods(http.MethodPost)
	app.HandleFunc("/account/security", s.signedIn(s.handleChangePassword)).Methods(http.MethodPost)
	app.HandleFunc("/account/sessions/revoke", s.signedIn(s.handleRevokeSession)).Methods(http.MethodPost)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// taskView returns the view-model of the signed-in user in this browser,
// creating and loading it on first use.
func (s *Server) taskView(ctx context.Context, st *requestState) (*taskView, bool, error) {
	user := st.auth.User
	key := viewKey{browserID: st.browserID, userID: user.ID}

	s.mu.Lock()
	s.sweepViews()
	v, ok := s.views[key]
	if ok {
		v.used = s.now()
	}
	s.mu.Unlock()
	if ok {
		v.live.Set(&user)
		return v, false, nil
	}

	// The store outlives this request; token refreshes must not be tied
	// to its cancellation.
	store, err := s.backend.TaskStore(context.WithoutCancel(ctx), st.session, &user)
	if err != nil {
		return nil, false, err
	}
	live := service.NewLiveSession(&user)
	v = &taskView{
		live: live,
		model: tasklist.New(store, live,
			tasklist.WithLogger(s.logger.With("component", "tasklist", "user_id", user.ID)),
			tasklist.WithObserver(s.metrics),
		),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.views[key]; ok {
		return existing, false, nil
	}
	v.used = s.now()
	s.views[key] = v
	return v, true, nil
}

func (s *Server) dropTaskView(browserID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, viewKey{browserID: browserID, userID: userID})
}

// sweepViews drops views idle for longer than idleTTL. Callers hold s.mu.
func (s *Server) sweepViews() {
	now := s.now()
	if now.Before(s.nextSweep) {
		return
	}
	for key, v := range s.views {
		if now.Sub(v.used) >= idleTTL {
			delete(s.views, key)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
