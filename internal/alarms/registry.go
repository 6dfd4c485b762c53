package alarms

import (
	"sort"
	"sync"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

// Meta is the mutable overlay the engine owns for one alarm:
// the fire history and one-shot auto-disable flag. Everything else
// comes from the alarm file.
type Meta struct {
	LastTriggered *time.Time
	Disabled      bool
}

// Registry provides in-memory storage and lookup for alarm definitions.
// The alarm file is the source of truth; Update replaces the set while
// engine-owned state (LastTriggered, one-shot disables) is carried over.
type Registry struct {
	mu         sync.RWMutex
	alarms     map[int64]*domain.Alarm
	lastReload time.Time
}

// NewRegistry creates a new alarm registry
func NewRegistry() *Registry {
	return &Registry{
		alarms: make(map[int64]*domain.Alarm),
	}
}

// Update replaces all alarms in the registry, preserving engine-owned
// state of alarms that survive the reload.
func (r *Registry) Update(alarms []*domain.Alarm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]*domain.Alarm, len(alarms))
	for _, alarm := range alarms {
		cp := *alarm
		if prev, ok := r.alarms[alarm.ID]; ok {
			cp.LastTriggered = prev.LastTriggered
			cp.CreatedAt = prev.CreatedAt
			// A one-shot that already fired stays off across reloads.
			if !prev.Enabled && prev.RepeatDays.IsEmpty() && prev.LastTriggered != nil {
				cp.Enabled = false
			}
		}
		next[cp.ID] = &cp
	}
	r.alarms = next
	r.lastReload = time.Now()
}

// ApplyMeta merges persisted engine-owned state into the registry.
func (r *Registry) ApplyMeta(metas map[int64]Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, meta := range metas {
		alarm, ok := r.alarms[id]
		if !ok {
			continue
		}
		if meta.LastTriggered != nil {
			t := *meta.LastTriggered
			alarm.LastTriggered = &t
		}
		if meta.Disabled {
			alarm.Enabled = false
		}
	}
}

// GetByID retrieves an alarm by id.
func (r *Registry) GetByID(id int64) (*domain.Alarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alarm, ok := r.alarms[id]
	if !ok {
		return nil, false
	}
	cp := *alarm
	return &cp, true
}

// GetAll returns all alarms ordered by id.
func (r *Registry) GetAll() []*domain.Alarm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Alarm, 0, len(r.alarms))
	for _, alarm := range r.alarms {
		cp := *alarm
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetEnabled returns the alarms that should currently be armed.
func (r *Registry) GetEnabled() []*domain.Alarm {
	all := r.GetAll()
	enabled := make([]*domain.Alarm, 0, len(all))
	for _, alarm := range all {
		if alarm.Enabled {
			enabled = append(enabled, alarm)
		}
	}
	return enabled
}

// SetEnabled flips the enabled flag, reporting whether the alarm exists.
func (r *Registry) SetEnabled(id int64, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	alarm, ok := r.alarms[id]
	if !ok {
		return false
	}
	alarm.Enabled = enabled
	return true
}

// UpdateLastTriggered records a fire time, reporting whether the alarm exists.
func (r *Registry) UpdateLastTriggered(id int64, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	alarm, ok := r.alarms[id]
	if !ok {
		return false
	}
	alarm.LastTriggered = &at
	return true
}

// Count returns the number of alarms in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.alarms)
}

// GetLastReload returns the timestamp of the last alarm file reload.
func (r *Registry) GetLastReload() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastReload
}
