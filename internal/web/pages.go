package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"authdemo/internal/config"
	"authdemo/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "auth", "dashboard", "account", "iframe"}

type pages struct {
	byName map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"derefInt": func(p *int) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	},
	"isTrue": func(p *bool) bool {
		return p != nil && *p
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template)}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// layout is the data every page template receives.
type layout struct {
	Title   string
	User    *service.User
	UI      config.UI
	Errors  []string
	Notices []string
	Minimal bool
}

func (s *Server) layout(r *http.Request, title string) layout {
	st := stateFrom(r)
	return layout{
		Title:   title,
		User:    st.user(),
		UI:      s.ui,
		Errors:  flashes(st, flashError),
		Notices: flashes(st, flashNotice),
	}
}

// render executes a page into a buffer, then saves the browser session
// (consumed flashes) and writes the page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.byName[name].Execute(&buf, data); err != nil {
		s.logger.Error("Failed to render page", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.save(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
