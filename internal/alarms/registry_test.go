package alarms

import (
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

func testAlarms() []*domain.Alarm {
	return []*domain.Alarm{
		{ID: 1, Hour: 6, Minute: 30, Enabled: true, RepeatDays: domain.NewWeekdaySet(time.Monday)},
		{ID: 2, Hour: 7, Minute: 0, Enabled: true},
		{ID: 3, Hour: 8, Minute: 0, Enabled: false},
	}
}

func TestRegistryGetEnabled(t *testing.T) {
	r := NewRegistry()
	r.Update(testAlarms())

	enabled := r.GetEnabled()
	if len(enabled) != 2 {
		t.Fatalf("GetEnabled() returned %d alarms, want 2", len(enabled))
	}
	if enabled[0].ID != 1 || enabled[1].ID != 2 {
		t.Errorf("GetEnabled() ids = [%d %d], want [1 2]", enabled[0].ID, enabled[1].ID)
	}
}

func TestRegistryGetByIDReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Update(testAlarms())

	a, ok := r.GetByID(1)
	if !ok {
		t.Fatal("GetByID(1) not found")
	}
	a.Enabled = false

	again, _ := r.GetByID(1)
	if !again.Enabled {
		t.Error("mutating a returned alarm leaked into the registry")
	}

	if _, ok := r.GetByID(99); ok {
		t.Error("GetByID(99) should report not found")
	}
}

func TestRegistryUpdatePreservesEngineState(t *testing.T) {
	r := NewRegistry()
	r.Update(testAlarms())

	fired := time.Date(2026, time.August, 29, 7, 0, 0, 0, time.Local)
	if !r.UpdateLastTriggered(2, fired) {
		t.Fatal("UpdateLastTriggered(2) reported missing alarm")
	}
	// One-shot alarm 2 fired and auto-disabled.
	if !r.SetEnabled(2, false) {
		t.Fatal("SetEnabled(2) reported missing alarm")
	}

	r.Update(testAlarms())

	a, _ := r.GetByID(2)
	if a.LastTriggered == nil || !a.LastTriggered.Equal(fired) {
		t.Errorf("LastTriggered lost across reload: %+v", a.LastTriggered)
	}
	if a.Enabled {
		t.Error("fired one-shot was re-enabled by an unchanged reload")
	}

	// A repeating alarm disabled at runtime follows the file again.
	if !r.SetEnabled(1, false) {
		t.Fatal("SetEnabled(1) reported missing alarm")
	}
	r.Update(testAlarms())
	if a, _ := r.GetByID(1); !a.Enabled {
		t.Error("repeating alarm should follow the file on reload")
	}
}

func TestRegistryApplyMeta(t *testing.T) {
	r := NewRegistry()
	r.Update(testAlarms())

	fired := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.Local)
	r.ApplyMeta(map[int64]Meta{
		2:  {LastTriggered: &fired, Disabled: true},
		99: {Disabled: true}, // unknown id ignored
	})

	a, _ := r.GetByID(2)
	if a.LastTriggered == nil || !a.LastTriggered.Equal(fired) {
		t.Errorf("LastTriggered not applied: %+v", a.LastTriggered)
	}
	if a.Enabled {
		t.Error("persisted disable not applied")
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
}
