package scheduler

import (
	"sync"
	"time"
)

// TimerService is the exact-timer primitive the engine schedules against:
// at most one armed callback per key, re-arming a key replaces the old timer.
// Implementations must support firing while the process is otherwise idle.
// A backend that cannot guarantee exact delivery must fail Arm with
// domain.ErrSchedulingDenied rather than degrade silently.
type TimerService interface {
	Arm(key string, at time.Time, fire func()) error
	Cancel(key string)
}

// WallTimers is the in-process TimerService on top of time.AfterFunc.
type WallTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	now    func() time.Time
}

func NewWallTimers() *WallTimers {
	return &WallTimers{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// Arm schedules fire at the given instant, replacing any timer already
// armed under key. A fire time in the past fires immediately.
func (w *WallTimers) Arm(key string, at time.Time, fire func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		t.Stop()
	}

	d := at.Sub(w.now())
	if d < 0 {
		d = 0
	}

	w.timers[key] = time.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, key)
		w.mu.Unlock()
		fire()
	})

	return nil
}

// Cancel stops and forgets the timer armed under key; no-op if absent.
func (w *WallTimers) Cancel(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}
}

// Armed returns the number of armed timers.
func (w *WallTimers) Armed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}
