package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"authdemo/internal/backend"
	"authdemo/internal/orgsync"
	"authdemo/internal/service"
)

const (
	keyBrowserID = "browser_id"
	keyAuth      = "auth_cookies"
	flashError   = "error"
	flashNotice  = "notice"
)

type ctxKey int

const stateKey ctxKey = 0

// requestState is the resolved viewer of one request.
type requestState struct {
	browserID string
	web       *sessions.Session
	session   backend.Session

	// auth is nil when the viewer is signed out.
	auth *service.AuthSession
}

func (st *requestState) user() *service.User {
	if st.auth == nil {
		return nil
	}
	u := st.auth.User
	return &u
}

func stateFrom(r *http.Request) *requestState {
	st, _ := r.Context().Value(stateKey).(*requestState)
	return st
}

// resolve reads the browser session, resolves the auth session and runs
// the organization sync for signed-in users.
func (s *Server) resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.store.Get(r, SessionName)
		if err != nil {
			// Undecodable cookie (rotated secret): start over.
			s.logger.Debug("Discarding browser session", "error", err)
			ws, _ = s.store.New(r, SessionName)
		}

		browserID, _ := ws.Values[keyBrowserID].(string)
		if browserID == "" {
			browserID = uuid.NewString()
			ws.Values[keyBrowserID] = browserID
		}

		sess, err := s.backend.Session(storedCookies(ws))
		if err != nil {
			s.logger.Error("Failed to open auth session", "error", err)
			http.Error(w, "auth service unavailable", http.StatusBadGateway)
			return
		}

		st := &requestState{browserID: browserID, web: ws, session: sess}
		auth, err := sess.GetSession(r.Context())
		if err != nil {
			s.logger.Warn("Failed to read auth session", "error", err)
		}
		st.auth = auth

		if auth != nil {
			syncer := orgsync.New(sess, s.guard,
				orgsync.WithLogger(s.logger.With("component", "orgsync")),
				orgsync.WithObserver(s.metrics),
			)
			// Failures are logged by the syncer and do not block the page.
			_, _ = syncer.Sync(r.Context(), browserID, auth.User)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), stateKey, st)))
	})
}

// signedIn redirects signed-out viewers to the sign-in page.
func (s *Server) signedIn(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if stateFrom(r).auth == nil {
			s.redirect(w, r, "/auth/sign-in")
			return
		}
		h(w, r)
	}
}

// instrument counts responses by route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.HTTPRequest(route, rec.status)
		s.logger.Debug("HTTP request", "method", r.Method, "route", route, "status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func storedCookies(ws *sessions.Session) []*http.Cookie {
	stored, _ := ws.Values[keyAuth].(map[string]string)
	cookies := make([]*http.Cookie, 0, len(stored))
	for name, value := range stored {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// save copies the auth cookies into the browser session and writes it.
// It must run before the response header is written.
func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	if st == nil {
		return
	}
	auth := make(map[string]string)
	for _, c := range st.session.Cookies() {
		auth[c.Name] = c.Value
	}
	if len(auth) == 0 {
		delete(st.web.Values, keyAuth)
	} else {
		st.web.Values[keyAuth] = auth
	}
	if err := st.web.Save(r, w); err != nil {
		s.logger.Error("Failed to save browser session", "error", err)
	}
}

func (s *Server) flash(r *http.Request, kind, msg string) {
	if st := stateFrom(r); st != nil {
		st.web.AddFlash(msg, kind)
	}
}

func flashes(st *requestState, kind string) []string {
	var out []string
	for _, f := range st.web.Flashes(kind) {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// redirect saves the browser session and answers 303 See Other.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	s.save(w, r)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
