package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	gate := mw.RequireAPISession(d.Guard, d.Logger)

	r.With(gate).Get("/api/state", handlers.State(d))
	r.With(gate).Get("/api/ws", handlers.WS(d))

	// One mutation entry point per service key.
	for _, key := range domain.AllServiceKeys() {
		r.With(gate).Post("/api/services/"+string(key), handlers.Toggle(d, key))
	}
}
