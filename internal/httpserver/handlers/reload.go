package handlers

import (
	"net/http"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/logger"
)

// Reload triggers a manual reload of the alarm and catalog files
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alarmsTriggered := false
		select {
		case d.ReloadTrigger <- struct{}{}:
			alarmsTriggered = true
			d.Logger.Info("manual alarm reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
		default:
			d.Logger.Warn("alarm reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
		}

		catalogTriggered := false
		if d.CatalogReloadTrigger != nil {
			select {
			case d.CatalogReloadTrigger <- struct{}{}:
				catalogTriggered = true
				d.Logger.Info("manual catalog reload triggered via endpoint",
					logger.String("remote_ip", r.RemoteAddr))
			default:
				d.Logger.Warn("catalog reload already in progress",
					logger.String("remote_ip", r.RemoteAddr))
			}
		}

		if alarmsTriggered || catalogTriggered {
			writeJSON(w, http.StatusAccepted, actionResponse{Accepted: true})
			return
		}
		writeJSON(w, http.StatusTooManyRequests, actionResponse{Error: "reload already in progress"})
	}
}
