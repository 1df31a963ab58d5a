// Package client is a Go consumer of the panel API. It owns a
// reconciler instance and drives the optimistic-update discipline:
// toggle locally, dispatch the mutation, confirm-and-refetch on
// success, revert on failure. Network timeouts synthesize a failure
// and are treated exactly like a store-reported one.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/mutator"
	"github.com/MrSnakeDoc/switchboard/internal/reconciler"
	"github.com/MrSnakeDoc/switchboard/internal/utils"
)

var (
	// ErrBadCredentials is returned by Login on a rejected pair.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrUnauthorized is returned when the session is missing or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMutationPending is returned when a toggle for the same service
	// is already in flight.
	ErrMutationPending = errors.New("mutation already pending for service")
	// ErrNotSynced is returned when Toggle runs before the first Sync.
	ErrNotSynced = errors.New("client not synced yet")
)

// State is the read entry point's payload.
type State struct {
	Services   map[string]bool `json:"services"`
	UpdatedAt  string          `json:"updated_at"`
	LastAction string          `json:"last_action"`
	Degraded   bool            `json:"degraded"`
}

type Client struct {
	base   string
	http   *http.Client
	logger logger.Logger
	rec    *reconciler.Reconciler
}

// New builds a client with its own cookie jar and a bounded request
// timeout. Redirects are not followed: the login dance is inspected,
// not chased.
func New(baseURL string, timeout time.Duration, log logger.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log,
	}, nil
}

// Login posts the credential pair. The server answers with a redirect
// either to the requested page (cookie set) or back to the login entry
// with an error marker.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("unexpected login status %d", resp.StatusCode)
	}
	if strings.Contains(resp.Header.Get("Location"), "error=1") {
		return ErrBadCredentials
	}
	return nil
}

// Sync performs the fresh-page-load step: fetch the authoritative
// record and start every service in Synced with its server value.
func (c *Client) Sync(ctx context.Context) error {
	state, err := c.FetchAll(ctx)
	if err != nil {
		return err
	}
	initial := make(map[domain.ServiceKey]bool, len(state.Services))
	for raw, active := range state.Services {
		key, err := domain.ParseServiceKey(raw)
		if err != nil {
			continue
		}
		initial[key] = active
	}
	c.rec = reconciler.New(initial)
	return nil
}

// FetchAll reads the current record through the session gate.
func (c *Client) FetchAll(ctx context.Context) (State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/state", nil)
	if err != nil {
		return State{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return State{}, fmt.Errorf("state request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return State{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return State{}, fmt.Errorf("unexpected state status %d", resp.StatusCode)
	}

	var state State
	if err := decodeJSON(resp, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Toggle flips one service: optimistic local apply, then the mutation.
// ok=true confirms the optimistic value and re-fetches everything;
// ok=false (including synthesized network failures) reverts.
func (c *Client) Toggle(ctx context.Context, key domain.ServiceKey) (mutator.Result, error) {
	if c.rec == nil {
		return mutator.Result{}, ErrNotSynced
	}
	target, ok := c.rec.Toggle(key)
	if !ok {
		return mutator.Result{}, ErrMutationPending
	}

	result, err := c.mutate(ctx, key, target)
	if err != nil {
		c.rec.Revert(key)
		if errors.Is(err, ErrUnauthorized) {
			return mutator.Result{}, err
		}
		c.logger.Warn("mutation failed, reverting optimistic value",
			logger.String("service", string(key)),
			logger.Error(err))
		// Synthesized failure: same shape as a store-reported one.
		return mutator.Result{OK: false, Message: err.Error()}, nil
	}

	if !result.OK {
		c.rec.Revert(key)
		return result, nil
	}

	c.rec.Confirm(key)
	if state, err := c.FetchAll(ctx); err == nil {
		resync := make(map[domain.ServiceKey]bool, len(state.Services))
		for raw, active := range state.Services {
			if k, err := domain.ParseServiceKey(raw); err == nil {
				resync[k] = active
			}
		}
		c.rec.Resync(resync)
	} else {
		c.logger.Warn("re-fetch after confirmed mutation failed",
			logger.Error(err))
	}
	return result, nil
}

// Displayed returns the value currently shown for a key.
func (c *Client) Displayed(key domain.ServiceKey) (bool, bool) {
	if c.rec == nil {
		return false, false
	}
	return c.rec.Displayed(key)
}

// IsPending reports an in-flight mutation for a key.
func (c *Client) IsPending(key domain.ServiceKey) bool {
	return c.rec != nil && c.rec.IsPending(key)
}

func (c *Client) mutate(ctx context.Context, key domain.ServiceKey, active bool) (mutator.Result, error) {
	bit := "0"
	if active {
		bit = "1"
	}
	form := url.Values{"active": {bit}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/services/"+string(key), strings.NewReader(form.Encode()))
	if err != nil {
		return mutator.Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return mutator.Result{}, fmt.Errorf("mutation request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return mutator.Result{}, ErrUnauthorized
	case http.StatusOK:
		var result mutator.Result
		if err := decodeJSON(resp, &result); err != nil {
			return mutator.Result{}, err
		}
		return result, nil
	default:
		var body struct {
			Error string `json:"error"`
		}
		_ = decodeJSON(resp, &body)
		return mutator.Result{}, fmt.Errorf("mutation rejected (%d): %s", resp.StatusCode, body.Error)
	}
}

func decodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
