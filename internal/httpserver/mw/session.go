package mw

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/session"
)

// RequirePageSession gates page routes. The credential is extracted
// once here and handed to the guard; unauthenticated requests redirect
// to the login entry carrying the originally requested path.
func RequirePageSession(guard *session.Guard, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := session.CredentialFromRequest(r)
			if !guard.Authenticate(credential) {
				log.Debug("unauthenticated page request, redirecting to login",
					logger.String("path", r.URL.Path))
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPISession gates API routes. Mutations and reads must
// short-circuit before touching the store, with an auth failure that
// is distinct from a data failure, so the response is a 401 body
// rather than a redirect.
func RequireAPISession(guard *session.Guard, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := session.CredentialFromRequest(r)
			if !guard.Authenticate(credential) {
				log.Debug("unauthenticated api request",
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok":    false,
					"error": "unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
