package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/filedesk/filedesk/internal/auth"
)

// SessionLoader resolves the identity behind a request's session cookie.
// *session.Manager implements it.
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) (*auth.Identity, error)
}

// LoadSession attaches the session identity, if any, to the request context.
// Store errors are logged and the request continues anonymously.
func LoadSession(sessions SessionLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := sessions.Load(r.Context(), r)
			if err != nil {
				logger.Warn("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
			if id != nil {
				r = r.WithContext(auth.ContextWithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to loginPath with the original
// path in the next parameter. POSTs are sent back to the referring form page
// rather than replayed.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.IdentityFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			target := r.URL.RequestURI()
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				target = "/"
			}
			http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(target), http.StatusSeeOther)
		})
	}
}

// SafeNext returns next when it is a local absolute path, otherwise "/".
// It keeps the login redirect from sending users to another origin.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}
