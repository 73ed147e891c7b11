// Package handler provides the HTTP handlers for the filedesk pages.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/middleware"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
	"github.com/filedesk/filedesk/internal/web"
)

// DefaultCustomerPageLimit caps the uploads listed on a customer page.
const DefaultCustomerPageLimit = 100

// Options holds page behaviour taken from configuration.
type Options struct {
	// AuthRequired gates the upload pages behind a login.
	AuthRequired bool
	// PlaceholderOwnerID owns uploads made without a session when
	// AuthRequired is false.
	PlaceholderOwnerID string
	RecentLimit        int
	CustomerPageLimit  int
}

// Handler serves the HTML pages.
type Handler struct {
	intake   *service.IntakeService
	accounts *service.AccountService
	sessions *session.Manager
	renderer *web.Renderer
	logger   *slog.Logger
	opts     Options
}

var _ middleware.ErrorPages = (*Handler)(nil)

// New creates a new Handler.
func New(
	intake *service.IntakeService,
	accounts *service.AccountService,
	sessions *session.Manager,
	renderer *web.Renderer,
	logger *slog.Logger,
	opts Options,
) *Handler {
	if opts.CustomerPageLimit <= 0 {
		opts.CustomerPageLimit = DefaultCustomerPageLimit
	}
	return &Handler{
		intake:   intake,
		accounts: accounts,
		sessions: sessions,
		renderer: renderer,
		logger:   logger.With("component", "handler"),
		opts:     opts,
	}
}

// page fills the fields every template needs and consumes pending flashes.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string) web.Page {
	return web.Page{
		Title:       title,
		Identity:    auth.IdentityFromContext(r.Context()),
		Flashes:     h.sessions.PopFlashes(w, r),
		AuthEnabled: h.opts.AuthRequired,
		RequestID:   middleware.GetRequestID(r.Context()),
	}
}

// render writes a page, falling back to the 500 page on template failure.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data web.Page) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.logger.Error("render page",
			"page", name,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.ServerError(w, r)
	}
}

// serverError logs err and renders the 500 page.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	h.ServerError(w, r)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, web.PageNotFound, h.page(w, r, "Not found"))
}

// MethodNotAllowed renders the 404 page with a 405 status.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusMethodNotAllowed, web.PageNotFound, h.page(w, r, "Not found"))
}

// ServerError renders the 500 page. A failing error template degrades to a
// static page.
func (h *Handler) ServerError(w http.ResponseWriter, r *http.Request) {
	data := web.Page{
		Title:       "Server error",
		Identity:    auth.IdentityFromContext(r.Context()),
		AuthEnabled: h.opts.AuthRequired,
		RequestID:   middleware.GetRequestID(r.Context()),
	}
	if err := h.renderer.Render(w, http.StatusInternalServerError, web.PageError, data); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(web.FallbackErrorPage))
	}
}

// TooManyRequests re-renders the login or signup form with a retry message.
func (h *Handler) TooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	name, title := web.PageLogin, "Log in"
	if r.URL.Path == "/signup" {
		name, title = web.PageSignup, "Sign up"
	}

	data := h.page(w, r, title)
	data.Errors.Add("form", "Too many attempts. Please wait "+retryText(retryAfter)+" and try again.")
	data.Values = map[string]string{
		"name": r.PostFormValue("name"),
		"next": r.PostFormValue("next"),
	}
	h.render(w, r, http.StatusTooManyRequests, name, data)
}

func retryText(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs <= 1 {
		return "a second"
	}
	return time.Duration(secs * int(time.Second)).String()
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(web.Static()))
}
