package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/session"
)

// Logout deletes the session cookie unconditionally and sends the
// caller back to the login entry.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, session.ClearCookie(d.SecureCookies))
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
