package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/desertthunder/brutaldon/internal/services"
)

//go:embed templates
var templateFS embed.FS

// Page is the data every template receives.
type Page struct {
	// Title is the page heading, e.g. the timeline label.
	Title         string
	FullBrutalism bool
	LoggedIn      bool

	Toots   []services.Status
	Notes   []services.Notification
	Toot    *services.Status
	Context *services.Context

	Form   any
	Errors FieldErrors
	// Error is a page-level message such as a failed login.
	Error string
	// Action is the form target on pages that share the post form.
	Action string

	Visibilities []string
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout, partials and every page template.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New("base.html").Funcs(funcMap()).ParseFS(templateFS, "templates/base.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	files = append(files, "templates/error.html")

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		tmpl, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[strings.TrimPrefix(file, "templates/")] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render writes the named page with status. Output is buffered so a failing template never sends a
// partial page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}

	if data.Visibilities == nil {
		data.Visibilities = Visibilities
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Pages lists the names of the loaded templates.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}

func funcMap() template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	// Status bodies arrive as HTML already sanitized by the instance.
	funcs["content"] = func(s string) template.HTML { return template.HTML(s) }
	funcs["handle"] = func(a services.Account) string { return "@" + a.Acct }
	return funcs
}
