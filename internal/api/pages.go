package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/identity"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home",
	"exercises",
	"exercise",
	"courses",
	"course",
	"panel",
	"login",
	"error",
}

type pages struct {
	set map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"percent": func(p exercise.Progress) string {
		return fmt.Sprintf("%.0f", p.Percent())
	},
	"exercisePath": exercisePath,
	"coursePath":   coursePath,
}

func loadPages() (*pages, error) {
	p := &pages{set: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.set[name] = t
	}
	return p, nil
}

// view is what every page template receives.
type view struct {
	Title  string
	User   identity.Identity
	Notice *exercisesession.Notice
	Data   any
}

// render executes into a buffer first so a template error still yields a
// clean 500 instead of a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := h.pages.set[page]
	if !ok {
		h.logger.Error("unknown page", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	v.User = identity.FromContext(r.Context())

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		h.logger.Error("render page", "page", page, "error", err, "request_id", RequestIDFrom(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Message string
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", view{
		Title: http.StatusText(status),
		Data:  errorPage{Status: status, Message: message},
	})
}
