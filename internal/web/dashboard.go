package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"authdemo/internal/orgsync"
	"authdemo/internal/service"
	"authdemo/internal/tasklist"
)

type dashboardPage struct {
	layout
	Tasks          []service.Task
	Filter         tasklist.Filter
	Filters        []tasklist.Filter
	Total          int
	ActiveCount    int
	CompletedCount int
	Banner         string
	CanShare       bool
	Draft          string
	Org            orgsync.OrganizationData
	OrgError       string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	v, created, err := s.taskView(r.Context(), st)
	if err != nil {
		s.logger.Error("Failed to open task store", "error", err)
		http.Error(w, "task backend unavailable", http.StatusBadGateway)
		return
	}
	// A pending banner survives until dismissed; otherwise every visit
	// re-reads the collection.
	if created || r.URL.Query().Get("reload") != "" || v.model.Error() == "" {
		_ = v.model.Load(r.Context())
	}

	filter, err := tasklist.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		filter = tasklist.FilterAll
	}
	v.model.SetFilter(filter)

	data := dashboardPage{
		layout:         s.layout(r, "Dashboard"),
		Tasks:          v.model.Visible(),
		Filter:         filter,
		Filters:        tasklist.Filters,
		Total:          v.model.Total(),
		ActiveCount:    v.model.ActiveCount(),
		CompletedCount: v.model.CompletedCount(),
		Banner:         v.model.Error(),
		CanShare:       v.model.CanShare(),
		Draft:          v.model.Draft(),
	}

	org, err := orgsync.NewLoader(st.session).Load(r.Context(), st.user())
	if err != nil {
		s.logger.Warn("Failed to load organization", "error", err)
		data.OrgError = "Failed to load organization"
	}
	data.Org = org
	s.render(w, r, "dashboard", data)
}

// dashboardURL keeps the submitted filter across the redirect.
func dashboardURL(r *http.Request) string {
	f, err := tasklist.ParseFilter(r.PostFormValue("filter"))
	if err != nil || f == tasklist.FilterAll {
		return "/dashboard"
	}
	return "/dashboard?" + url.Values{"filter": {string(f)}}.Encode()
}

// mutate runs one view-model operation and redirects back to the list.
// Remote failures already surface as the model's banner; precondition
// errors become flash messages.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op func(m *tasklist.Model) error) {
	v, _, err := s.taskView(r.Context(), stateFrom(r))
	if err != nil {
		s.logger.Error("Failed to open task store", "error", err)
		http.Error(w, "task backend unavailable", http.StatusBadGateway)
		return
	}
	if err := op(v.model); err != nil {
		if msg := preconditionMessage(err); msg != "" {
			s.flash(r, flashError, msg)
		}
	}
	s.redirect(w, r, dashboardURL(r))
}

func preconditionMessage(err error) string {
	switch {
	case errors.Is(err, tasklist.ErrEmptyTitle):
		return "Title is required"
	case errors.Is(err, tasklist.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, tasklist.ErrReadOnly):
		return "Anonymous sessions cannot share tasks"
	case errors.Is(err, tasklist.ErrNotSignedIn):
		return "Sign in to change tasks"
	}
	return ""
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	title := r.PostFormValue("title")
	s.mutate(w, r, func(m *tasklist.Model) error {
		m.SetDraft(title)
		return m.Add(r.Context(), title)
	})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, func(m *tasklist.Model) error { return m.Toggle(r.Context(), id) })
}

func (s *Server) handlePublicTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, func(m *tasklist.Model) error { return m.SetPublic(r.Context(), id) })
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutate(w, r, func(m *tasklist.Model) error { return m.Delete(r.Context(), id) })
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *tasklist.Model) error { return m.ClearCompleted(r.Context()) })
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *tasklist.Model) error {
		m.DismissError()
		return nil
	})
}
