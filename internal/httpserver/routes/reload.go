package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/httpserver/handlers"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.Post("/reload", handlers.Reload(d))
}
