package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
)

// Scheduler maintains exactly one armed timer per (alarm, repeat-day) pair
// for every enabled alarm, and none for disabled ones. Fired occurrences
// are delivered to the engine as domain.AlarmFired events.
type Scheduler struct {
	timers TimerService
	logger logger.Logger
	clock  func() time.Time
	emit   func(domain.AlarmFired)

	mu    sync.Mutex
	armed map[int64]map[string]struct{} // alarm id -> armed occurrence keys
}

func New(timers TimerService, log logger.Logger, clock func() time.Time, emit func(domain.AlarmFired)) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		timers: timers,
		logger: log,
		clock:  clock,
		emit:   emit,
		armed:  make(map[int64]map[string]struct{}),
	}
}

// occurrenceKey derives the deterministic timer key for one occurrence,
// so re-arming replaces instead of duplicating.
func occurrenceKey(alarmID int64, day *time.Weekday) string {
	if day == nil {
		return fmt.Sprintf("alarm:%d:once", alarmID)
	}
	return fmt.Sprintf("alarm:%d:day:%d", alarmID, int(*day))
}

// Schedule arms the occurrences for one alarm. A disabled alarm has its
// occurrences cancelled instead. If any occurrence cannot be armed, the
// alarm's already-armed occurrences are rolled back and the error is
// returned; the caller decides how to surface it.
func (s *Scheduler) Schedule(alarm *domain.Alarm) error {
	if !alarm.Enabled {
		s.Cancel(alarm.ID)
		return nil
	}
	if !alarm.Valid() {
		return fmt.Errorf("alarm %d has invalid trigger time %02d:%02d", alarm.ID, alarm.Hour, alarm.Minute)
	}

	s.Cancel(alarm.ID)

	now := s.clock()

	if alarm.RepeatDays.IsEmpty() {
		at := NextFireTime(now, alarm.Hour, alarm.Minute, alarm.RepeatDays)
		if err := s.arm(alarm.ID, nil, at); err != nil {
			return err
		}
		s.logger.Debug("armed one-shot occurrence",
			logger.Int64("alarm_id", alarm.ID),
			logger.Time("fire_at", at))
		return nil
	}

	for _, day := range alarm.RepeatDays.Days() {
		d := day
		at := NextFireTimeForDay(now, alarm.Hour, alarm.Minute, d)
		if err := s.arm(alarm.ID, &d, at); err != nil {
			s.Cancel(alarm.ID)
			return err
		}
	}
	s.logger.Debug("armed repeating occurrences",
		logger.Int64("alarm_id", alarm.ID),
		logger.Int("days", len(alarm.RepeatDays.Days())))
	return nil
}

// Cancel removes every occurrence keyed to the alarm id.
// Safe to call for alarms that were never scheduled.
func (s *Scheduler) Cancel(alarmID int64) {
	s.mu.Lock()
	keys := s.armed[alarmID]
	delete(s.armed, alarmID)
	s.mu.Unlock()

	for key := range keys {
		s.timers.Cancel(key)
	}
}

// RearmAfterFire re-arms only the occurrence for the weekday that just
// fired, seven days out. Other repeat days stay untouched.
func (s *Scheduler) RearmAfterFire(alarm *domain.Alarm, firedDay time.Weekday) error {
	if !alarm.RepeatDays.Has(firedDay) {
		return nil
	}
	at := NextFireTimeForDay(s.clock(), alarm.Hour, alarm.Minute, firedDay)
	return s.arm(alarm.ID, &firedDay, at)
}

// ReconcileAll cancels every known occurrence and re-derives from scratch.
// Required after boot or a clock/timezone change, when stored absolute fire
// times are no longer trustworthy. One alarm's failure does not abort the
// rest; failures are returned per alarm id.
func (s *Scheduler) ReconcileAll(alarms []*domain.Alarm) map[int64]error {
	s.mu.Lock()
	known := make([]int64, 0, len(s.armed))
	for id := range s.armed {
		known = append(known, id)
	}
	s.mu.Unlock()

	for _, id := range known {
		s.Cancel(id)
	}

	failed := make(map[int64]error)
	for _, alarm := range alarms {
		if err := s.Schedule(alarm); err != nil {
			failed[alarm.ID] = err
			s.logger.Error("failed to schedule alarm during reconcile",
				logger.Int64("alarm_id", alarm.ID),
				logger.Error(err))
		}
	}

	s.logger.Info("reconciled alarm occurrences",
		logger.Int("alarms", len(alarms)),
		logger.Int("failed", len(failed)))
	return failed
}

// NextFor computes the alarm's next fire time without touching the timers.
// Returns nil for disabled or invalid alarms.
func (s *Scheduler) NextFor(alarm *domain.Alarm) *time.Time {
	if !alarm.Enabled || !alarm.Valid() {
		return nil
	}
	at := NextFireTime(s.clock(), alarm.Hour, alarm.Minute, alarm.RepeatDays)
	return &at
}

// ArmedKeys returns the occurrence keys currently armed for an alarm.
func (s *Scheduler) ArmedKeys(alarmID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.armed[alarmID]))
	for key := range s.armed[alarmID] {
		keys = append(keys, key)
	}
	return keys
}

func (s *Scheduler) arm(alarmID int64, day *time.Weekday, at time.Time) error {
	key := occurrenceKey(alarmID, day)

	err := s.timers.Arm(key, at, func() {
		s.fired(alarmID, key, day)
	})
	if err != nil {
		return fmt.Errorf("arming occurrence %s: %w", key, err)
	}

	s.mu.Lock()
	if s.armed[alarmID] == nil {
		s.armed[alarmID] = make(map[string]struct{})
	}
	s.armed[alarmID][key] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) fired(alarmID int64, key string, day *time.Weekday) {
	s.mu.Lock()
	if keys, ok := s.armed[alarmID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.armed, alarmID)
		}
	}
	s.mu.Unlock()

	s.emit(domain.AlarmFired{AlarmID: alarmID, Day: day, At: s.clock()})
}
