package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/session"
)

func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePageSessionRedirectsWithNext(t *testing.T) {
	guard := session.NewGuard("admin", "pw", "s3cret")
	var reached bool
	h := RequirePageSession(guard, logger.New("error", false))(okHandler(&reached))

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if reached {
		t.Error("handler reached without session")
	}
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if got := w.Header().Get("Location"); got != "/login?next=%2Fdashboard" {
		t.Errorf("Location = %q, want %q", got, "/login?next=%2Fdashboard")
	}
}

func TestRequirePageSessionPassesWithValidCookie(t *testing.T) {
	guard := session.NewGuard("admin", "pw", "s3cret")
	var reached bool
	h := RequirePageSession(guard, logger.New("error", false))(okHandler(&reached))

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "s3cret"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if !reached {
		t.Error("handler not reached with valid session")
	}
}

func TestRequireAPISessionReturns401(t *testing.T) {
	guard := session.NewGuard("admin", "pw", "s3cret")
	var reached bool
	h := RequireAPISession(guard, logger.New("error", false))(okHandler(&reached))

	tests := []struct {
		name   string
		cookie string
	}{
		{name: "missing cookie", cookie: ""},
		{name: "wrong credential", cookie: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			r := httptest.NewRequest(http.MethodPost, "/api/services/api", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if reached {
				t.Error("handler reached without valid session")
			}
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireAPISessionFailsClosedWithoutSecret(t *testing.T) {
	guard := session.NewGuard("admin", "pw", "")
	var reached bool
	h := RequireAPISession(guard, logger.New("error", false))(okHandler(&reached))

	r := httptest.NewRequest(http.MethodPost, "/api/services/api", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: ""})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if reached || w.Code != http.StatusUnauthorized {
		t.Errorf("unconfigured secret: reached=%v status=%d, want blocked 401", reached, w.Code)
	}
}
