package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wakebell/wakebell/internal/httpserver/deps"
)

type snoozeView struct {
	Active   bool      `json:"active"`
	Count    int       `json:"count"`
	Deadline time.Time `json:"deadline,omitempty"`
}

type alarmView struct {
	ID            int64       `json:"id"`
	Label         string      `json:"label,omitempty"`
	Time          string      `json:"time"`
	Days          []string    `json:"days,omitempty"`
	Enabled       bool        `json:"enabled"`
	NextFire      *time.Time  `json:"next_fire,omitempty"`
	LastTriggered *time.Time  `json:"last_triggered,omitempty"`
	ContentNumber *int        `json:"content_number,omitempty"`
	Volume        float64     `json:"volume"`
	Snooze        *snoozeView `json:"snooze,omitempty"`
}

type alarmsResponse struct {
	Alarms []alarmView `json:"alarms"`
}

// Alarms lists every alarm with its computed next fire time and any
// pending snooze.
func Alarms(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		all := d.Registry.GetAll()
		views := make([]alarmView, 0, len(all))
		for _, alarm := range all {
			view := alarmView{
				ID:            alarm.ID,
				Label:         alarm.Label,
				Time:          clockString(alarm.Hour, alarm.Minute),
				Enabled:       alarm.Enabled,
				NextFire:      d.Scheduler.NextFor(alarm),
				LastTriggered: alarm.LastTriggered,
				ContentNumber: alarm.ContentNumber,
				Volume:        alarm.Volume,
			}
			for _, day := range alarm.RepeatDays.Days() {
				view.Days = append(view.Days, day.String())
			}
			if st := d.Snoozes.State(alarm.ID); st != nil {
				view.Snooze = &snoozeView{
					Active:   st.Active,
					Count:    st.Count,
					Deadline: st.Deadline,
				}
			}
			views = append(views, view)
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(alarmsResponse{Alarms: views})
	}
}

func clockString(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}
