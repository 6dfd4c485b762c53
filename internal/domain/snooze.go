package domain

import "time"

// SnoozeState tracks the snooze cycle of one alarm.
// It must survive a process restart: a crash between firing and dismissing
// must not lose the retry, and a stale deadline must not resurrect one.
type SnoozeState struct {
	AlarmID int64

	// Deadline is when the snoozed alarm rings again.
	Deadline time.Time

	// Count is how many times this cycle has been snoozed (1..max).
	Count int

	// OriginalTrigger is the fire time that started the cycle.
	// Preserved across repeat snoozes.
	OriginalTrigger time.Time

	// Active is false once the snooze was cancelled, dismissed or expired.
	Active bool
}

// Expired reports whether the deadline has passed at the given instant.
// Expired states are treated as inactive when loaded from the store.
func (s *SnoozeState) Expired(now time.Time) bool {
	return !s.Deadline.After(now)
}
