package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"georegistry/internal/auth"
	"georegistry/internal/repository"
)

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every HTTP request with its status and duration.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration", time.Since(start),
				"remote", r.RemoteAddr)
		})
	}
}

// SessionAuth resolves a bearer token into a session on the request context.
// Requests without a token proceed anonymously; a token that resolves to no
// session is rejected.
func SessionAuth(sessions repository.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}

			session, err := sessions.GetByToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					http.Error(w, "invalid session token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "failed to resolve session", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
		})
	}
}
