package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/session"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

type dashboardCard struct {
	Key      domain.ServiceKey
	Title    string
	Subtitle string
	Confirm  string
	Active   bool
}

type dashboardData struct {
	Services   []dashboardCard
	UpdatedAt  string
	LastAction string
	Degraded   bool
}

// Dashboard renders the control panel. A store failure degrades to
// all-active rather than erroring, so a transient backend issue never
// locks the admin out of the page.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, degraded := d.Mutator.FetchAllSafe(r.Context())

		cards := make([]dashboardCard, 0, 4)
		for _, entry := range d.Catalog.Entries() {
			cards = append(cards, dashboardCard{
				Key:      entry.Key,
				Title:    entry.Title,
				Subtitle: entry.Subtitle,
				Confirm:  entry.Confirm,
				Active:   state.Get(entry.Key).Active(),
			})
		}

		data := dashboardData{
			Services:   cards,
			UpdatedAt:  state.UpdatedAt.Format(store.TimeLayout),
			LastAction: lastActionFromRequest(r),
			Degraded:   degraded,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := pageTemplates.ExecuteTemplate(w, "dashboard", data); err != nil {
			d.Logger.Error("failed to render dashboard", logger.Error(err))
		}
	}
}

// Root sends the bare origin to the dashboard; the session gate takes
// it from there.
func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, defaultNext, http.StatusFound)
	}
}

// lastActionFromRequest reads the auxiliary action cookie. The value is
// stored underscore-separated to stay cookie-safe.
func lastActionFromRequest(r *http.Request) string {
	c, err := r.Cookie(session.LastActionCookieName)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(c.Value, "_", " ")
}
