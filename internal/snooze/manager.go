package snooze

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/scheduler"
)

// DefaultMaxCount caps how often one ring cycle can be snoozed.
const DefaultMaxCount = 10

// Store is the durable persistence consumed by the manager.
// Implemented by the Redis store; tests use an in-memory fake.
type Store interface {
	SaveSnooze(ctx context.Context, st *domain.SnoozeState) error
	ListSnooze(ctx context.Context) ([]*domain.SnoozeState, error)
	DeleteSnooze(ctx context.Context, alarmID int64) error
}

// Manager tracks per-alarm snooze state: Idle -> Snoozed(count, deadline)
// -> Idle. State survives restarts; an expired deadline loads as inactive
// so a crash between firing and dismissing cannot resurrect a stale snooze.
//
// Writes for one alarm id are serialized by a per-id lock; different
// alarms proceed in parallel.
type Manager struct {
	store    Store
	timers   scheduler.TimerService
	logger   logger.Logger
	clock    func() time.Time
	maxCount int
	emit     func(domain.SnoozeFired)

	mu     sync.Mutex
	locks  map[int64]*sync.Mutex
	states map[int64]*domain.SnoozeState
}

func NewManager(store Store, timers scheduler.TimerService, log logger.Logger, clock func() time.Time, maxCount int, emit func(domain.SnoozeFired)) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &Manager{
		store:    store,
		timers:   timers,
		logger:   log,
		clock:    clock,
		maxCount: maxCount,
		emit:     emit,
		locks:    make(map[int64]*sync.Mutex),
		states:   make(map[int64]*domain.SnoozeState),
	}
}

func timerKey(alarmID int64) string {
	return fmt.Sprintf("snooze:%d", alarmID)
}

// Snooze arms the alarm's next retry. Fails with ErrSnoozeDisabled when the
// alarm forbids it and ErrSnoozeLimitReached once the cycle count is
// exhausted. Returns the new deadline and count.
func (m *Manager) Snooze(ctx context.Context, alarm *domain.Alarm) (time.Time, int, error) {
	if !alarm.SnoozeEnabled {
		return time.Time{}, 0, domain.ErrSnoozeDisabled
	}

	lock := m.lockFor(alarm.ID)
	lock.Lock()
	defer lock.Unlock()

	now := m.clock()

	count := 0
	original := now
	if cur := m.getState(alarm.ID); cur != nil {
		count = cur.Count
		if !cur.OriginalTrigger.IsZero() {
			original = cur.OriginalTrigger
		}
	}

	if count >= m.maxCount {
		return time.Time{}, count, domain.ErrSnoozeLimitReached
	}

	deadline := now.Add(time.Duration(alarm.SnoozeMinutes) * time.Minute)

	st := &domain.SnoozeState{
		AlarmID:         alarm.ID,
		Deadline:        deadline,
		Count:           count + 1,
		OriginalTrigger: original,
		Active:          true,
	}

	if err := m.timers.Arm(timerKey(alarm.ID), deadline, func() { m.fired(alarm.ID) }); err != nil {
		return time.Time{}, count, fmt.Errorf("arming snooze timer: %w", err)
	}

	if err := m.store.SaveSnooze(ctx, st); err != nil {
		m.timers.Cancel(timerKey(alarm.ID))
		return time.Time{}, count, fmt.Errorf("persisting snooze state: %w", err)
	}
	m.setState(st)

	m.logger.Info("alarm snoozed",
		logger.Int64("alarm_id", alarm.ID),
		logger.Int("count", st.Count),
		logger.Time("deadline", deadline))

	return deadline, st.Count, nil
}

// Cancel disarms the pending snooze timer and marks the state inactive.
// The count is kept so the limit still applies to the cycle. Idempotent.
func (m *Manager) Cancel(ctx context.Context, alarmID int64) error {
	lock := m.lockFor(alarmID)
	lock.Lock()
	defer lock.Unlock()

	m.timers.Cancel(timerKey(alarmID))

	st := m.getState(alarmID)
	if st == nil || !st.Active {
		return nil
	}

	st.Active = false
	if err := m.store.SaveSnooze(ctx, st); err != nil {
		return fmt.Errorf("persisting cancelled snooze: %w", err)
	}
	return nil
}

// Clear removes the alarm's snooze state entirely (dismiss or deletion).
func (m *Manager) Clear(ctx context.Context, alarmID int64) error {
	lock := m.lockFor(alarmID)
	lock.Lock()
	defer lock.Unlock()

	m.timers.Cancel(timerKey(alarmID))

	m.mu.Lock()
	delete(m.states, alarmID)
	m.mu.Unlock()

	if err := m.store.DeleteSnooze(ctx, alarmID); err != nil {
		return fmt.Errorf("deleting snooze state: %w", err)
	}
	return nil
}

// Restore loads persisted state after a process start. Deadlines already in
// the past load as inactive regardless of the stored flag; still-pending
// snoozes re-arm their timers so the retry is not lost.
func (m *Manager) Restore(ctx context.Context) error {
	states, err := m.store.ListSnooze(ctx)
	if err != nil {
		return fmt.Errorf("loading snooze states: %w", err)
	}

	now := m.clock()
	rearmed := 0

	for _, st := range states {
		if st.Active && st.Expired(now) {
			st.Active = false
			if err := m.store.SaveSnooze(ctx, st); err != nil {
				m.logger.Warn("failed to persist expired snooze",
					logger.Int64("alarm_id", st.AlarmID),
					logger.Error(err))
			}
		}

		if st.Active {
			id := st.AlarmID
			if err := m.timers.Arm(timerKey(id), st.Deadline, func() { m.fired(id) }); err != nil {
				m.logger.Error("failed to re-arm snooze timer",
					logger.Int64("alarm_id", id),
					logger.Error(err))
				continue
			}
			rearmed++
		}

		m.setState(st)
	}

	m.logger.Info("restored snooze state",
		logger.Int("states", len(states)),
		logger.Int("rearmed", rearmed))
	return nil
}

// State returns a copy of the alarm's snooze state, or nil.
func (m *Manager) State(alarmID int64) *domain.SnoozeState {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[alarmID]
	if !ok {
		return nil
	}
	cp := *st
	return &cp
}

// TrackedIDs lists every alarm id with snooze state in memory, active
// or not. Used to sweep state for alarms that no longer exist.
func (m *Manager) TrackedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) fired(alarmID int64) {
	lock := m.lockFor(alarmID)
	lock.Lock()

	at := m.clock()
	if st := m.getState(alarmID); st != nil && st.Active {
		st.Active = false
		// Best effort: the in-memory state is authoritative for this run.
		if err := m.store.SaveSnooze(context.Background(), st); err != nil {
			m.logger.Warn("failed to persist fired snooze",
				logger.Int64("alarm_id", alarmID),
				logger.Error(err))
		}
	}
	lock.Unlock()

	m.emit(domain.SnoozeFired{AlarmID: alarmID, At: at})
}

func (m *Manager) lockFor(alarmID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.locks[alarmID]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.locks[alarmID] = l
	return l
}

func (m *Manager) getState(alarmID int64) *domain.SnoozeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[alarmID]
}

func (m *Manager) setState(st *domain.SnoozeState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.AlarmID] = st
}
