package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/session"
	"github.com/MrSnakeDoc/switchboard/internal/ws"
)

// Toggle returns the mutation handler for one service key. The session
// gate already ran; the only input left to validate is the active bit,
// which is rejected before the store is touched.
func Toggle(d deps.Deps, key domain.ServiceKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := r.ParseForm(); err != nil {
			writeValidationError(w, "malformed form body")
			return
		}

		var active bool
		switch r.PostFormValue("active") {
		case "1":
			active = true
		case "0":
			active = false
		default:
			writeValidationError(w, `field "active" must be "1" or "0"`)
			return
		}

		result := d.Mutator.SetFlag(r.Context(), key, active)
		if result.OK {
			http.SetCookie(w, session.LastActionCookie(actionValue(key, active), d.SecureCookies))

			// Converge every open dashboard on the authoritative record.
			if state, err := d.Mutator.FetchAll(r.Context()); err == nil {
				d.Hub.Broadcast(ws.NewEvent(state))
			} else {
				d.Logger.Warn("skipping state broadcast, re-read failed",
					logger.Error(err))
			}
		}

		_ = json.NewEncoder(w).Encode(result)
	}
}

func actionValue(key domain.ServiceKey, active bool) string {
	if active {
		return "restore_" + string(key)
	}
	return "shutdown_" + string(key)
}

func writeValidationError(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}
