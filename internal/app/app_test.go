package app

import (
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/playback"
)

func TestPlaybackPayloadCarriesSnapshot(t *testing.T) {
	st := playback.Status{
		State:    playback.Playing,
		Number:   23,
		Title:    "passage",
		Position: 90 * time.Second,
		Volume:   0.8,
	}

	payload := playbackPayload(st)

	if payload["state"] != "playing" {
		t.Errorf("state = %v, want playing", payload["state"])
	}
	if payload["number"] != 23 {
		t.Errorf("number = %v, want 23", payload["number"])
	}
	if payload["position"] != 90.0 {
		t.Errorf("position = %v, want 90", payload["position"])
	}
	if _, ok := payload["error"]; ok {
		t.Error("error key present without an error")
	}
}

func TestPlaybackPayloadIncludesError(t *testing.T) {
	st := playback.Status{
		State: playback.Error,
		Err:   "opening playback source: no such file",
	}

	payload := playbackPayload(st)

	if payload["error"] != st.Err {
		t.Errorf("error = %v, want %q", payload["error"], st.Err)
	}
}
