package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/httpserver/handlers"
)

func init() { Register(registerSelection) }

func registerSelection(r chi.Router, d deps.Deps) {
	r.Get("/selection", handlers.Selection(d))
	r.Post("/selection/reselect", handlers.Reselect(d))
}
