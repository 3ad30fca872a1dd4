package web

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"authdemo/internal/config"
	"authdemo/internal/service"
)

// Auth view pathnames.
const (
	viewSignIn         = "sign-in"
	viewSignUp         = "sign-up"
	viewForgotPassword = "forgot-password"
	viewResetPassword  = "reset-password"
	viewMagicLink      = "magic-link"
	viewAnonymous      = "anonymous"
	viewCallback       = "callback"
	viewSignOut        = "sign-out"
)

var authViews = []string{
	viewSignIn, viewSignUp, viewForgotPassword, viewResetPassword,
	viewMagicLink, viewAnonymous, viewCallback, viewSignOut,
}

type authPage struct {
	layout
	View  string
	Token string
}

func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["pathname"]
	if !slices.Contains(authViews, view) {
		http.NotFound(w, r)
		return
	}
	st := stateFrom(r)

	// The auth service has already set its cookies when the provider
	// redirects back here.
	if view == viewCallback && st.auth != nil {
		s.redirect(w, r, "/dashboard")
		return
	}

	data := authPage{
		layout: s.layout(r, authTitle(s.ui, view)),
		View:   view,
		Token:  r.URL.Query().Get("token"),
	}
	data.Minimal = view == viewCallback || view == viewSignOut
	s.render(w, r, "auth", data)
}

func authTitle(ui config.UI, view string) string {
	switch view {
	case viewSignIn:
		return ui.Text("SIGN_IN")
	case viewSignUp:
		return ui.Text("SIGN_UP")
	case viewForgotPassword:
		return ui.Text("FORGOT_PASSWORD")
	case viewMagicLink:
		return ui.Text("MAGIC_LINK")
	case viewResetPassword:
		return "Reset Password"
	case viewAnonymous:
		return "Anonymous Access"
	case viewCallback:
		return "Signing you in"
	case viewSignOut:
		return "Sign Out"
	}
	return view
}

func (s *Server) handleAuthSubmit(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["pathname"]
	switch view {
	case viewSignIn:
		s.signIn(w, r)
	case viewSignUp:
		s.signUp(w, r)
	case viewForgotPassword:
		s.forgotPassword(w, r)
	case viewResetPassword:
		s.resetPassword(w, r)
	case viewAnonymous:
		s.signInAnonymous(w, r)
	case viewSignOut:
		s.signOut(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		s.flash(r, flashError, "Email and password are required")
		s.redirect(w, r, "/auth/sign-in")
		return
	}
	if _, err := stateFrom(r).session.SignInEmail(r.Context(), email, password); err != nil {
		s.logger.Info("Sign in failed", "error", err)
		s.flash(r, flashError, "Sign in failed. Check your email and password.")
		s.redirect(w, r, "/auth/sign-in")
		return
	}
	s.redirect(w, r, "/dashboard")
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	req := service.SignUp{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		s.flash(r, flashError, "Name, email and password are required")
		s.redirect(w, r, "/auth/sign-up")
		return
	}
	fields, err := s.customFields(r)
	if err != nil {
		s.flash(r, flashError, err.Error())
		s.redirect(w, r, "/auth/sign-up")
		return
	}
	req.Company, req.Age, req.Newsletter = fields.Company, fields.Age, fields.Newsletter

	if _, err := stateFrom(r).session.SignUpEmail(r.Context(), req); err != nil {
		s.logger.Info("Sign up failed", "error", err)
		s.flash(r, flashError, "Sign up failed: "+err.Error())
		s.redirect(w, r, "/auth/sign-up")
		return
	}
	s.redirect(w, r, "/dashboard")
}

// customFields validates and converts the configured custom fields of a
// sign-up or settings form.
func (s *Server) customFields(r *http.Request) (service.ProfileUpdate, error) {
	var p service.ProfileUpdate
	for _, f := range s.ui.Fields {
		value := strings.TrimSpace(r.PostFormValue(f.Name))
		if f.Type == config.FieldBoolean {
			value = checkboxValue(value)
		}
		if err := f.Validate(value); err != nil {
			return p, err
		}
		switch f.Name {
		case "company":
			p.Company = value
		case "age":
			if value != "" {
				n, _ := strconv.Atoi(value)
				p.Age = &n
			}
		case "newsletter":
			b := value == "true"
			p.Newsletter = &b
		}
	}
	return p, nil
}

func checkboxValue(v string) string {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return "true"
	}
	return ""
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		s.flash(r, flashError, "Email is required")
		s.redirect(w, r, "/auth/forgot-password")
		return
	}
	if err := stateFrom(r).session.RequestPasswordReset(r.Context(), email, s.baseURL+"/auth/reset-password"); err != nil {
		s.logger.Warn("Password reset request failed", "error", err)
	}
	// Same answer either way, so the form does not reveal accounts.
	s.flash(r, flashNotice, "If an account exists for that email, a reset link is on its way.")
	s.redirect(w, r, "/auth/sign-in")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PostFormValue("token")
	password := r.PostFormValue("password")
	if token == "" || password == "" {
		s.flash(r, flashError, "Reset token and new password are required")
		s.redirect(w, r, "/auth/reset-password?token="+token)
		return
	}
	if err := stateFrom(r).session.ResetPassword(r.Context(), token, password); err != nil {
		s.logger.Info("Password reset failed", "error", err)
		s.flash(r, flashError, "Password reset failed. The link may have expired.")
		s.redirect(w, r, "/auth/forgot-password")
		return
	}
	s.flash(r, flashNotice, "Password updated. Sign in with your new password.")
	s.redirect(w, r, "/auth/sign-in")
}

func (s *Server) signInAnonymous(w http.ResponseWriter, r *http.Request) {
	if _, err := stateFrom(r).session.SignInAnonymous(r.Context()); err != nil {
		s.logger.Warn("Anonymous sign in failed", "error", err)
		s.flash(r, flashError, "Anonymous sign in failed")
		s.redirect(w, r, "/auth/anonymous")
		return
	}
	s.redirect(w, r, "/dashboard")
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	if st.auth != nil {
		s.dropTaskView(st.browserID, st.auth.User.ID)
	}
	if err := st.session.SignOut(r.Context()); err != nil {
		s.logger.Warn("Sign out failed", "error", err)
	}
	if err := s.guard.Reset(r.Context(), st.browserID); err != nil {
		s.logger.Warn("Failed to reset organization sync", "error", err)
	}
	s.redirect(w, r, "/")
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if !s.ui.HasProvider(provider) {
		http.NotFound(w, r)
		return
	}
	target, err := stateFrom(r).session.SignInSocial(r.Context(), provider, s.baseURL+"/auth/callback")
	if err != nil {
		s.logger.Warn("Social sign in failed", "provider", provider, "error", err)
		s.flash(r, flashError, "Could not start "+provider+" sign in")
		s.redirect(w, r, "/auth/sign-in")
		return
	}
	s.redirect(w, r, target)
}
