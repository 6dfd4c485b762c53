package integration

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/alarms"
	"github.com/wakebell/wakebell/internal/catalog"
	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/engine"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/playback"
	"github.com/wakebell/wakebell/internal/scheduler"
	"github.com/wakebell/wakebell/internal/selection"
	"github.com/wakebell/wakebell/internal/snooze"
	redisstore "github.com/wakebell/wakebell/internal/store/redis"
)

// ── in-memory stand-ins for the wall clock and Redis ────────────────

type manualTimers struct {
	mu    sync.Mutex
	armed map[string]func()
}

func newManualTimers() *manualTimers {
	return &manualTimers{armed: make(map[string]func())}
}

func (m *manualTimers) Arm(key string, _ time.Time, fire func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed[key] = fire
	return nil
}

func (m *manualTimers) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.armed, key)
}

func (m *manualTimers) fire(t *testing.T, key string) {
	t.Helper()
	m.mu.Lock()
	fn, ok := m.armed[key]
	delete(m.armed, key) // one-shot, like a real wall timer
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no timer armed under %q", key)
	}
	fn()
}

func (m *manualTimers) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.armed[key]
	return ok
}

type memSession struct {
	done chan struct{}
}

func (s *memSession) Start()                  {}
func (s *memSession) Pause()                  {}
func (s *memSession) Resume()                 {}
func (s *memSession) SetVolume(float64)       {}
func (s *memSession) Position() time.Duration { return 0 }
func (s *memSession) Stop()                   {}
func (s *memSession) Done() <-chan struct{}   { return s.done }

type memOutput struct{}

func (memOutput) Open(string) (playback.Session, error) {
	return &memSession{done: make(chan struct{})}, nil
}

type memSelStore struct {
	mu  sync.Mutex
	rec *domain.SelectionRecord
}

func (s *memSelStore) LoadSelection(context.Context) (*domain.SelectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return domain.NewSelectionRecord(), nil
	}
	return s.rec, nil
}

func (s *memSelStore) SaveSelection(_ context.Context, rec *domain.SelectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	return nil
}

type memSnoozeStore struct {
	mu     sync.Mutex
	states map[int64]domain.SnoozeState
}

func (s *memSnoozeStore) SaveSnooze(_ context.Context, st *domain.SnoozeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.AlarmID] = *st
	return nil
}

func (s *memSnoozeStore) ListSnooze(context.Context) ([]*domain.SnoozeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.SnoozeState, 0, len(s.states))
	for _, st := range s.states {
		cp := st
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memSnoozeStore) DeleteSnooze(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

type memMeta struct {
	mu    sync.Mutex
	saved map[int64]redisstore.AlarmMeta
}

func (m *memMeta) SaveAlarmMeta(_ context.Context, id int64, meta redisstore.AlarmMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[id] = meta
	return nil
}

// ── wired stack ─────────────────────────────────────────────────────

type stack struct {
	engine   *engine.Engine
	registry *alarms.Registry
	catalog  *catalog.Memory
	machine  *playback.Machine
	timers   *manualTimers

	mu     sync.Mutex
	events []string
}

// newStack wires the real components the way the daemon does, with
// manual timers and an in-memory output so tests control time.
func newStack(t *testing.T, contentNumbers ...int) *stack {
	t.Helper()
	log := logger.New("error", false)
	now := time.Date(2026, time.August, 29, 7, 0, 0, 0, time.Local) // Saturday
	clock := func() time.Time { return now }

	s := &stack{
		registry: alarms.NewRegistry(),
		catalog:  catalog.NewMemory(),
		timers:   newManualTimers(),
	}

	items := make([]*domain.ContentItem, 0, len(contentNumbers))
	for _, n := range contentNumbers {
		items = append(items, &domain.ContentItem{
			Number:    n,
			Title:     "passage",
			Locator:   "/audio/p.wav",
			Available: true,
		})
	}
	s.catalog.Update(items)

	arbiter := playback.NewLocalArbiter(log)
	s.machine = playback.NewMachine(memOutput{}, arbiter, log)

	var eng *engine.Engine
	sched := scheduler.New(s.timers, log, clock, func(ev domain.AlarmFired) {
		eng.Submit(ev)
	})
	snoozes := snooze.NewManager(&memSnoozeStore{states: make(map[int64]domain.SnoozeState)},
		s.timers, log, clock, 10, func(ev domain.SnoozeFired) {
			eng.Submit(ev)
		})
	selMgr := selection.NewManager(s.catalog, &memSelStore{},
		selection.NewStrategy("weighted", rand.New(rand.NewSource(42)), 7), log, clock, 30)

	eng = engine.New(engine.Options{
		Registry:    s.registry,
		Scheduler:   sched,
		Snoozes:     snoozes,
		Selection:   selMgr,
		Catalog:     s.catalog,
		Machine:     s.machine,
		Timers:      s.timers,
		Meta:        &memMeta{saved: make(map[int64]redisstore.AlarmMeta)},
		Logger:      log,
		Clock:       clock,
		RingTimeout: 10 * time.Minute,
		Notify: func(event string, _ any) {
			s.mu.Lock()
			s.events = append(s.events, event)
			s.mu.Unlock()
		},
	})
	s.engine = eng
	return s
}

func (s *stack) waitState(t *testing.T, want playback.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.machine.Status().State == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("playback state = %v, want %v", s.machine.Status().State, want)
}

func (s *stack) waitEvent(t *testing.T, event string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		for _, e := range s.events {
			if e == event {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("event %q never observed, got %v", event, s.events)
}

func (s *stack) waitTimer(t *testing.T, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.timers.has(key) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timer %q never armed", key)
}

// TestWakeCycle walks a full morning: the alarm arms, fires, rings,
// gets snoozed, rings again after the snooze, and is dismissed.
func TestWakeCycle(t *testing.T) {
	s := newStack(t, 1, 2, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.engine.Run(ctx)

	s.registry.Update([]*domain.Alarm{{
		ID:            1,
		Hour:          7,
		Minute:        0,
		RepeatDays:    domain.NewWeekdaySet(time.Saturday),
		Enabled:       true,
		SnoozeEnabled: true,
		SnoozeMinutes: 10,
		Volume:        0.8,
	}})

	s.engine.Reconcile(ctx)
	s.waitTimer(t, "alarm:1:day:6")

	// Saturday 07:00 arrives.
	s.timers.fire(t, "alarm:1:day:6")
	s.waitState(t, playback.Playing)
	s.waitEvent(t, "alarm_fired")
	s.waitTimer(t, "ring:1")

	st := s.machine.Status()
	if st.Number < 1 || st.Number > 3 {
		t.Fatalf("ringing with catalog number %d, want 1..3", st.Number)
	}
	firstNumber := st.Number

	// The fired occurrence is re-armed for next Saturday.
	s.waitTimer(t, "alarm:1:day:6")

	// User hits snooze.
	s.engine.Submit(domain.SnoozeRequested{AlarmID: 1, At: time.Now()})
	s.waitState(t, playback.Stopped)
	s.waitEvent(t, "snoozed")
	s.waitTimer(t, "snooze:1")

	// Snooze deadline arrives: same item rings again (same-day cache).
	s.timers.fire(t, "snooze:1")
	s.waitState(t, playback.Playing)
	if st := s.machine.Status(); st.Number != firstNumber {
		t.Errorf("snooze ring played %d, want same item %d", st.Number, firstNumber)
	}

	// User dismisses for good.
	s.engine.Submit(domain.DismissRequested{AlarmID: 1, At: time.Now()})
	s.waitState(t, playback.Stopped)
	s.waitEvent(t, "dismissed")

	if s.timers.has("snooze:1") {
		t.Error("snooze timer survived dismiss")
	}
}

// TestOneShotWakeDisablesAlarm covers the fire-once path end to end.
func TestOneShotWakeDisablesAlarm(t *testing.T) {
	s := newStack(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.engine.Run(ctx)

	s.registry.Update([]*domain.Alarm{{
		ID:            2,
		Hour:          7,
		Minute:        30,
		Enabled:       true,
		SnoozeEnabled: true,
		SnoozeMinutes: 5,
		Volume:        1.0,
	}})

	s.engine.Reconcile(ctx)
	s.waitTimer(t, "alarm:2:once")

	s.timers.fire(t, "alarm:2:once")
	s.waitState(t, playback.Playing)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a, ok := s.registry.GetByID(2); ok && !a.Enabled {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if a, _ := s.registry.GetByID(2); a.Enabled {
		t.Error("one-shot alarm still enabled after firing")
	}
	if s.timers.has("alarm:2:once") {
		t.Error("one-shot occurrence re-armed after firing")
	}

	s.engine.Submit(domain.DismissRequested{AlarmID: 2, At: time.Now()})
	s.waitState(t, playback.Stopped)
}
