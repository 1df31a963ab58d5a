package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

type stateResponse struct {
	Services   map[string]bool `json:"services"` // key -> active bit
	UpdatedAt  string          `json:"updated_at"`
	LastAction string          `json:"last_action,omitempty"`
	Degraded   bool            `json:"degraded,omitempty"`
}

// State returns the authoritative four-flag record plus the last
// human-readable action. Reads degrade to all-active on store failure.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, degraded := d.Mutator.FetchAllSafe(r.Context())

		services := make(map[string]bool, 4)
		for key, flag := range state.Flags() {
			services[string(key)] = flag.Active()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(stateResponse{
			Services:   services,
			UpdatedAt:  state.UpdatedAt.Format(store.TimeLayout),
			LastAction: lastActionFromRequest(r),
			Degraded:   degraded,
		})
	}
}
