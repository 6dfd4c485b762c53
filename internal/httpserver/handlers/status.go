package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Count      *int   `json:"count,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type playbackStatus struct {
	State           string  `json:"state"`
	Number          int     `json:"number,omitempty"`
	Title           string  `json:"title,omitempty"`
	PositionSeconds float64 `json:"position_seconds"`
	Volume          float64 `json:"volume"`
	Error           string  `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Playback   playbackStatus             `json:"playback"`
	Components map[string]componentStatus `json:"components"`
}

func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		alarmCount := d.Registry.Count()
		catalogCount := d.Catalog.Count()

		components := map[string]componentStatus{
			"alarms": {
				OK:         alarmCount > 0,
				Count:      &alarmCount,
				LastReload: formatReload(d.Registry.GetLastReload()),
			},
			"catalog": {
				OK:         catalogCount > 0,
				Count:      &catalogCount,
				LastReload: formatReload(d.Catalog.GetLastReload()),
			},
			"redis": checkRedis(d),
		}

		st := d.Machine.Status()
		response := statusResponse{
			Mode: determineMode(components),
			Playback: playbackStatus{
				State:           st.State.String(),
				Number:          st.Number,
				Title:           st.Title,
				PositionSeconds: st.Position.Seconds(),
				Volume:          st.Volume,
				Error:           st.Err,
			},
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func formatReload(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func determineMode(components map[string]componentStatus) string {
	if alarms, exists := components["alarms"]; exists && !alarms.OK {
		return "idle" // nothing to wake anyone for
	}
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded" // no persistence: snooze/selection state is volatile
	}
	return "ready"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Impact: "state-persistence-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "state-persistence-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Impact: "state-persistence-enabled",
	}
}
