package web

import (
	"net/http"
	"slices"

	"authdemo/internal/service"
	"authdemo/internal/tasklist"
)

type homePage struct {
	layout
	Greeting    string
	PublicTasks []service.Task
	BoardError  string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	data := homePage{layout: s.layout(r, "Neon Auth Demo")}

	if st.auth != nil {
		data.Greeting = st.auth.User.Greeting()
		s.render(w, r, "home", data)
		return
	}

	store, err := s.backend.TaskStore(r.Context(), st.session, nil)
	if err != nil {
		s.logger.Error("Failed to open guest task store", "error", err)
		data.BoardError = tasklist.MsgLoadFailed
		s.render(w, r, "home", data)
		return
	}
	board := tasklist.New(store, service.NewLiveSession(nil),
		tasklist.WithLogger(s.logger.With("component", "tasklist")),
		tasklist.WithObserver(s.metrics),
	)
	_ = board.Load(r.Context())
	data.PublicTasks = board.Tasks()
	data.BoardError = board.Error()
	s.render(w, r, "home", data)
}

var iframeRoutes = []string{"/auth/sign-in", "/auth/sign-up", "/auth/forgot-password"}

type iframePage struct {
	layout
	Src    string
	Routes []string
}

func (s *Server) handleIframe(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if !slices.Contains(iframeRoutes, src) {
		src = iframeRoutes[0]
	}
	s.render(w, r, "iframe", iframePage{
		layout: s.layout(r, "iframe SSO Test"),
		Src:    src,
		Routes: iframeRoutes,
	})
}
