package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Root(d))

	// Everything under the dashboard prefix requires a session; the
	// gate redirects to /login?next=<path> otherwise.
	gate := mw.RequirePageSession(d.Guard, d.Logger)
	r.Route("/dashboard", func(sub chi.Router) {
		sub.Use(gate, mw.EnforceHost(d.AllowedHosts, d.Logger))
		sub.Get("/", handlers.Dashboard(d))
		sub.Get("/*", handlers.Dashboard(d))
	})
}
