// Package session implements the admin session gate. There is exactly
// one principal: a caller either presents the configured credential or
// it does not. The credential is handed to the guard as a plain
// argument extracted once at the request boundary; no handler reads
// cookies itself.
package session

import (
	"crypto/subtle"
	"net/http"
	"time"
)

const (
	// CookieName carries the session credential.
	CookieName = "admin_session"

	// LastActionCookieName carries the last human-readable action, set
	// on every successful mutation.
	LastActionCookieName = "last_shutdown_action"

	// DefaultTTL is the lifetime of a login-issued session.
	DefaultTTL = 8 * time.Hour

	// LastActionTTL is the lifetime of the auxiliary action cookie.
	LastActionTTL = 7 * 24 * time.Hour
)

// Guard validates credentials against the server-configured secret and
// login pair. An empty secret always denies (fail closed).
type Guard struct {
	username string
	password string
	secret   string
}

func NewGuard(username, password, secret string) *Guard {
	return &Guard{username: username, password: password, secret: secret}
}

// Authenticate reports whether the credential grants admin access.
// Absent credential or unconfigured secret is always a denial.
func (g *Guard) Authenticate(credential string) bool {
	if g.secret == "" || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), []byte(g.secret)) == 1
}

// VerifyLogin checks the username/password pair. Both fields must match
// exactly; the caller never learns which one was wrong.
func (g *Guard) VerifyLogin(username, password string) bool {
	if g.secret == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	return userOK && passOK
}

// IssueCookie builds the session cookie for a successful login.
func (g *Guard) IssueCookie(ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    g.secret,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// ClearCookie expires the session cookie unconditionally.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// LastActionCookie records the last mutation in human-readable form.
// The value travels as a cookie, so spaces are encoded as underscores;
// readers reverse that.
func LastActionCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     LastActionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(LastActionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// CredentialFromRequest extracts the session credential at the request
// boundary. Missing cookie reads as the empty credential.
func CredentialFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
