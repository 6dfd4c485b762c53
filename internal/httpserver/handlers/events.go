package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/httpserver/ws"
	"github.com/wakebell/wakebell/internal/logger"
)

var upgrader = websocket.Upgrader{
	// The daemon serves a LAN; origin enforcement happens upstream if at all.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events upgrades to a websocket and attaches the client to the event
// feed. The first frame is a playback status snapshot.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		st := d.Machine.Status()
		d.Hub.Register(conn, r.RemoteAddr, ws.Snapshot("status_init", map[string]any{
			"state":  st.State.String(),
			"number": st.Number,
			"title":  st.Title,
			"volume": st.Volume,
		}))
	}
}
