package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// ErrorPages renders the HTML responses middleware emits on its own.
// handler.Handler implements it.
type ErrorPages interface {
	ServerError(w http.ResponseWriter, r *http.Request)
	TooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)
}

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and renders the 500 page. http.ErrAbortHandler
// is re-panicked so net/http can abort the connection.
func Recoverer(logger *slog.Logger, pages ErrorPages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if pages == nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				pages.ServerError(w, r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
