package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/filedesk/filedesk/internal/middleware"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Pages  *Handler
	Health *HealthHandler
	Logger *slog.Logger

	// Gatherer backs GET /metrics; HTTPMetrics records per-route traffic.
	// Either may be nil.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *middleware.HTTPMetrics

	Limiter        middleware.Limiter
	RateLimit      bool
	RateLimitRPS   int
	RateLimitBurst int

	IsDevelopment bool
	// MaxUploadSize bounds the file; the request body may exceed it by
	// MultipartOverhead.
	MaxUploadSize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Pages
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, h))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Handler)
	}

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", MetricsHandler(cfg.Gatherer))
	r.Method(http.MethodGet, "/static/*", Static())

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(h.sessions, cfg.Logger))

		r.Get("/", h.Index)
		r.Get("/index", h.Index)

		limit := func(scope string) func(http.Handler) http.Handler {
			return middleware.RateLimitIP(middleware.RateLimitConfig{
				Logger:    cfg.Logger,
				Limiter:   cfg.Limiter,
				Enabled:   cfg.RateLimit,
				Scope:     scope,
				RPS:       cfg.RateLimitRPS,
				Burst:     cfg.RateLimitBurst,
				Pages:     h,
				OnLimited: func(*http.Request) { h.accounts.RecordRateLimited() },
			})
		}
		r.Get("/login", h.LoginForm)
		r.With(limit("login")).Post("/login", h.Login)
		r.Get("/signup", h.SignupForm)
		r.With(limit("signup")).Post("/signup", h.Signup)
		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			if h.opts.AuthRequired {
				r.Use(middleware.RequireLogin("/login"))
			}
			r.Get("/upload", h.UploadForm)
			r.With(middleware.MaxBodySize(cfg.MaxUploadSize+MultipartOverhead, http.HandlerFunc(h.UploadTooLarge))).
				Post("/uploader", h.Upload)
			r.Get("/customer/{name}", h.Customer)
		})

		// Registered on the group so error pages still see the session.
		r.NotFound(h.NotFound)
		r.MethodNotAllowed(h.MethodNotAllowed)
	})

	return r
}
