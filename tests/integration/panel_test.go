package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/catalog"
	"github.com/MrSnakeDoc/switchboard/internal/client"
	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/mutator"
	"github.com/MrSnakeDoc/switchboard/internal/session"
	boltstore "github.com/MrSnakeDoc/switchboard/internal/store/bolt"
	"github.com/MrSnakeDoc/switchboard/internal/ws"
)

const (
	testUsername = "admin"
	testPassword = "hunter2"
	testSecret   = "integration-secret"
)

// newPanel stands up the production router on a bolt store and returns
// the test server. Everything between the TCP listener and the file on
// disk is the real stack.
func newPanel(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := boltstore.Open(filepath.Join(t.TempDir(), "panel.db"))
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	log := logger.New("error", false)
	cat := catalog.Default()
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)

	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		Store:         st,
		Mutator:       mutator.New(st, cat, log),
		Guard:         session.NewGuard(testUsername, testPassword, testSecret),
		Catalog:       cat,
		Hub:           hub,
		SessionTTL:    session.DefaultTTL,
		SecureCookies: false,
	}

	srv := httptest.NewServer(httpserver.NewRouter(log, d))
	t.Cleanup(srv.Close)
	return srv
}

// bareClient never follows redirects and carries no cookies, so every
// response is observed exactly as the server sent it.
func bareClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestUnauthenticatedDashboardRedirectsToLogin(t *testing.T) {
	srv := newPanel(t)

	resp, err := bareClient().Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/login?next=%2Fdashboard" {
		t.Errorf("Location = %q, want login redirect with next", got)
	}
}

func TestUnauthenticatedDashboardSubpathRedirects(t *testing.T) {
	srv := newPanel(t)

	resp, err := bareClient().Get(srv.URL + "/dashboard/settings")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/login?next=%2Fdashboard%2Fsettings" {
		t.Errorf("Location = %q, want login redirect preserving the subpath", got)
	}
}

func TestWrongPasswordRedirectsWithErrorAndNoCookie(t *testing.T) {
	srv := newPanel(t)

	form := url.Values{
		"username": {testUsername},
		"password": {"nope"},
		"next":     {"/dashboard"},
	}
	resp, err := bareClient().PostForm(srv.URL+"/login", form)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Location"); got != "/login?error=1&next=%2Fdashboard" {
		t.Errorf("Location = %q, want error redirect", got)
	}
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			t.Error("session cookie issued for wrong password")
		}
	}
}

func TestUnauthenticatedMutationLeavesRecordUntouched(t *testing.T) {
	srv := newPanel(t)

	resp, err := bareClient().PostForm(srv.URL+"/api/services/api",
		url.Values{"active": {"0"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// Read back with a real session; every flag must still be active.
	c := login(t, srv)
	state, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch state: %v", err)
	}
	for key, active := range state.Services {
		if !active {
			t.Errorf("service %s mutated without a session", key)
		}
	}
}

func login(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL, 5*time.Second, logger.New("error", false))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	if err := c.Login(context.Background(), testUsername, testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := c.Sync(context.Background()); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}
	return c
}

func TestLoginBadCredentialsIsDistinguished(t *testing.T) {
	srv := newPanel(t)

	c, err := client.New(srv.URL, 5*time.Second, logger.New("error", false))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	err = c.Login(context.Background(), testUsername, "nope")
	if !errors.Is(err, client.ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials", err)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	srv := newPanel(t)
	c := login(t, srv)
	ctx := context.Background()

	res, err := c.Toggle(ctx, domain.KeyAPI)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("result not OK: %+v", res)
	}
	if res.Title != "API" || !strings.Contains(res.Message, "SPENTO") {
		t.Errorf("result = %+v, want API shutdown confirmation", res)
	}

	state, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("failed to fetch state: %v", err)
	}
	want := map[string]bool{
		"website":   true,
		"api":       false,
		"dashboard": true,
		"admin":     true,
	}
	for key, active := range want {
		if state.Services[key] != active {
			t.Errorf("service %s active = %v, want %v", key, state.Services[key], active)
		}
	}
	if state.LastAction != "shutdown api" {
		t.Errorf("last_action = %q, want %q", state.LastAction, "shutdown api")
	}

	// Toggle back; the record must converge to all-active again.
	if _, err := c.Toggle(ctx, domain.KeyAPI); err != nil {
		t.Fatalf("restore toggle failed: %v", err)
	}
	state, err = c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("failed to fetch state: %v", err)
	}
	if !state.Services["api"] {
		t.Error("api still shutdown after restore")
	}
}

func TestToggleSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.db")

	open := func() (*httptest.Server, func()) {
		st, err := boltstore.Open(path)
		if err != nil {
			t.Fatalf("failed to open bolt store: %v", err)
		}
		log := logger.New("error", false)
		cat := catalog.Default()
		hub := ws.NewHub(log)
		d := deps.Deps{
			Logger:        log,
			StartTime:     time.Now(),
			Store:         st,
			Mutator:       mutator.New(st, cat, log),
			Guard:         session.NewGuard(testUsername, testPassword, testSecret),
			Catalog:       cat,
			Hub:           hub,
			SessionTTL:    session.DefaultTTL,
			SecureCookies: false,
		}
		srv := httptest.NewServer(httpserver.NewRouter(log, d))
		return srv, func() {
			srv.Close()
			hub.Close()
			_ = st.Close()
		}
	}

	srv, stop := open()
	c := login(t, srv)
	ctx := context.Background()
	if _, err := c.Toggle(ctx, domain.KeyWebsite); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	stop()

	srv, stop = open()
	defer stop()
	c = login(t, srv)
	state, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("failed to fetch state after restart: %v", err)
	}
	if state.Services["website"] {
		t.Error("website shutdown flag lost across restart")
	}
	for _, key := range []string{"api", "dashboard", "admin"} {
		if !state.Services[key] {
			t.Errorf("service %s flipped without a mutation", key)
		}
	}
}

func TestStateEndpointSchema(t *testing.T) {
	srv := newPanel(t)
	c := login(t, srv)
	if _, err := c.Toggle(context.Background(), domain.KeyDashboard); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	// Raw request with the session cookie, to pin the wire schema.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/state", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: testSecret})
	resp, err := bareClient().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	for _, field := range []string{"services", "updated_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("response missing field %q", field)
		}
	}

	var updatedAt string
	if err := json.Unmarshal(raw["updated_at"], &updatedAt); err != nil {
		t.Fatalf("updated_at not a string: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		t.Errorf("updated_at = %q not RFC3339: %v", updatedAt, err)
	}
}

func TestHealthEndpointsNeedNoSession(t *testing.T) {
	srv := newPanel(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := bareClient().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
