package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/httpserver/handlers"
)

func init() { Register(registerAlarms) }

func registerAlarms(r chi.Router, d deps.Deps) {
	r.Get("/alarms", handlers.Alarms(d))
	r.Post("/alarms/{id}/snooze", handlers.Snooze(d))
	r.Post("/alarms/{id}/dismiss", handlers.Dismiss(d))
}
