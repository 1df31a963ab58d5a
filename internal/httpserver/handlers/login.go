package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
)

const defaultNext = "/dashboard"

type loginPageData struct {
	Error bool
	Next  string
}

// LoginPage renders the login form. An error marker in the query shows
// a generic failure message that never says which field was wrong.
func LoginPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := loginPageData{
			Error: r.URL.Query().Get("error") == "1",
			Next:  sanitizeNext(r.URL.Query().Get("next")),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplates.ExecuteTemplate(w, "login", data); err != nil {
			d.Logger.Error("failed to render login page", logger.Error(err))
		}
	}
}

// Login verifies the posted credentials. Success issues the session
// cookie and redirects to the originally requested path; failure
// redirects back to the form with the error marker.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?error=1", http.StatusFound)
			return
		}

		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		next := sanitizeNext(r.PostFormValue("next"))

		if !d.Guard.VerifyLogin(username, password) {
			d.Logger.Warn("login failed",
				logger.String("remote_ip", r.RemoteAddr))
			http.Redirect(w, r, "/login?error=1&next="+url.QueryEscape(next), http.StatusFound)
			return
		}

		http.SetCookie(w, d.Guard.IssueCookie(d.SessionTTL, d.SecureCookies))
		d.Logger.Info("admin logged in",
			logger.String("remote_ip", r.RemoteAddr))
		http.Redirect(w, r, next, http.StatusFound)
	}
}

// sanitizeNext keeps post-login redirects on this origin: the target
// must be a local absolute path.
func sanitizeNext(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return defaultNext
	}
	return raw
}
