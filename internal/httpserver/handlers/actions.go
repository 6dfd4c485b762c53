package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/logger"
)

type actionResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func alarmID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Snooze queues a snooze request for the engine loop.
func Snooze(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := alarmID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, actionResponse{Error: "invalid alarm id"})
			return
		}
		if _, exists := d.Registry.GetByID(id); !exists {
			writeJSON(w, http.StatusNotFound, actionResponse{Error: "alarm not found"})
			return
		}

		d.Engine.Submit(domain.SnoozeRequested{AlarmID: id, At: d.TimeNow()})
		writeJSON(w, http.StatusAccepted, actionResponse{Accepted: true})
	}
}

// Dismiss queues a dismiss request for the engine loop.
func Dismiss(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := alarmID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, actionResponse{Error: "invalid alarm id"})
			return
		}
		if _, exists := d.Registry.GetByID(id); !exists {
			writeJSON(w, http.StatusNotFound, actionResponse{Error: "alarm not found"})
			return
		}

		d.Engine.Submit(domain.DismissRequested{AlarmID: id, At: d.TimeNow()})
		writeJSON(w, http.StatusAccepted, actionResponse{Accepted: true})
	}
}

type selectionResponse struct {
	Number int    `json:"number,omitempty"`
	Title  string `json:"title,omitempty"`
	Empty  bool   `json:"empty,omitempty"`
}

// Selection returns today's chosen content item, picking one if needed.
func Selection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := d.Selection.TodaysSelection(r.Context())
		if err != nil {
			d.Logger.Error("selection lookup failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, actionResponse{Error: "selection failed"})
			return
		}
		if item == nil {
			writeJSON(w, http.StatusOK, selectionResponse{Empty: true})
			return
		}
		writeJSON(w, http.StatusOK, selectionResponse{Number: item.Number, Title: item.Title})
	}
}

// Reselect discards today's cached choice and picks again.
func Reselect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := d.Selection.Reselect(r.Context())
		if err != nil {
			d.Logger.Error("reselect failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, actionResponse{Error: "reselect failed"})
			return
		}
		if item == nil {
			writeJSON(w, http.StatusOK, selectionResponse{Empty: true})
			return
		}
		writeJSON(w, http.StatusOK, selectionResponse{Number: item.Number, Title: item.Title})
	}
}

type focusRequest struct {
	Kind string `json:"kind"`
}

var focusKinds = map[string]domain.FocusChangeKind{
	"lost":      domain.FocusLostPermanent,
	"transient": domain.FocusLostTransient,
	"duck":      domain.FocusLostTransientDuck,
	"regained":  domain.FocusRegained,
}

// Focus injects an external audio-focus interruption into the engine.
func Focus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req focusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, actionResponse{Error: "invalid body"})
			return
		}
		kind, ok := focusKinds[req.Kind]
		if !ok {
			writeJSON(w, http.StatusBadRequest, actionResponse{Error: "unknown focus kind"})
			return
		}

		d.Engine.Submit(domain.FocusChanged{Kind: kind, At: d.TimeNow()})
		writeJSON(w, http.StatusAccepted, actionResponse{Accepted: true})
	}
}
