// Package web holds the embedded HTML templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageIndex    = "index.html"
	PageUpload   = "upload.html"
	PageLogin    = "login.html"
	PageSignup   = "signup.html"
	PageCustomer = "customer.html"
	PageNotFound = "404.html"
	PageError    = "500.html"
)

var pages = []string{PageIndex, PageUpload, PageLogin, PageSignup, PageCustomer, PageNotFound, PageError}

// Page is the data every template receives.
type Page struct {
	Title       string
	Identity    *auth.Identity
	Flashes     []session.Flash
	AuthEnabled bool
	RequestID   string

	Uploads  []*model.Upload
	Customer *model.Customer

	// Upload form
	AllowedTypes string
	MaxSize      string

	// Re-rendered forms
	Errors form.Errors
	Values map[string]string
}

// Value returns a previously submitted form value.
func (p Page) Value(field string) string {
	return p.Values[field]
}

// Renderer executes the page templates.
type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	},
	"bytes": service.FormatBytes,
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render writes page with status. The page is rendered to a buffer first so
// a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the embedded static assets rooted at the static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// FallbackErrorPage is written when the error template itself fails.
const FallbackErrorPage = `<!doctype html><html><head><title>Server error</title></head><body><h1>500</h1><p>Something went wrong.</p></body></html>`
