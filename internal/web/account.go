package web

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"authdemo/internal/service"
)

// Account views.
const (
	accountSettings = "settings"
	accountSecurity = "security"
	accountSessions = "sessions"
)

type accountPage struct {
	layout
	View          string
	Views         []string
	Sessions      []service.SessionInfo
	CurrentToken  string
	SessionsError string
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["view"]
	if view == "" {
		view = accountSettings
	}
	var title string
	switch view {
	case accountSettings:
		title = s.ui.Text("SETTINGS")
	case accountSecurity:
		title = s.ui.Text("SECURITY")
	case accountSessions:
		title = s.ui.Text("SESSIONS")
	default:
		http.NotFound(w, r)
		return
	}

	st := stateFrom(r)
	data := accountPage{
		layout:       s.layout(r, title),
		View:         view,
		Views:        []string{accountSettings, accountSecurity, accountSessions},
		CurrentToken: st.auth.Session.Token,
	}
	if view == accountSessions {
		list, err := st.session.ListSessions(r.Context())
		if err != nil {
			s.logger.Warn("Failed to list sessions", "error", err)
			data.SessionsError = "Failed to load sessions"
		}
		data.Sessions = list
	}
	s.render(w, r, "account", data)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	update, err := s.customFields(r)
	if err != nil {
		s.flash(r, flashError, err.Error())
		s.redirect(w, r, "/account/settings")
		return
	}
	update.Name = strings.TrimSpace(r.PostFormValue("name"))
	if err := stateFrom(r).session.UpdateUser(r.Context(), update); err != nil {
		s.logger.Warn("Failed to update user", "error", err)
		s.flash(r, flashError, "Failed to save settings")
		s.redirect(w, r, "/account/settings")
		return
	}
	s.flash(r, flashNotice, "Settings saved")
	s.redirect(w, r, "/account/settings")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	current := r.PostFormValue("current_password")
	next := r.PostFormValue("new_password")
	if current == "" || next == "" {
		s.flash(r, flashError, "Current and new password are required")
		s.redirect(w, r, "/account/security")
		return
	}
	if next != r.PostFormValue("confirm_password") {
		s.flash(r, flashError, "Passwords do not match")
		s.redirect(w, r, "/account/security")
		return
	}
	revoke := checkboxValue(r.PostFormValue("revoke_other_sessions")) == "true"
	if err := stateFrom(r).session.ChangePassword(r.Context(), current, next, revoke); err != nil {
		s.logger.Info("Password change failed", "error", err)
		s.flash(r, flashError, "Failed to change password")
		s.redirect(w, r, "/account/security")
		return
	}
	s.flash(r, flashNotice, "Password changed")
	s.redirect(w, r, "/account/security")
}

func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	token := r.PostFormValue("token")
	if token == "" {
		s.flash(r, flashError, "Session is required")
		s.redirect(w, r, "/account/sessions")
		return
	}
	if err := stateFrom(r).session.RevokeSession(r.Context(), token); err != nil {
		s.logger.Warn("Failed to revoke session", "error", err)
		s.flash(r, flashError, "Failed to revoke session")
		s.redirect(w, r, "/account/sessions")
		return
	}
	s.flash(r, flashNotice, "Session revoked")
	s.redirect(w, r, "/account/sessions")
}
