package domain

import "time"

const (
	MinSnoozeMinutes = 1
	MaxSnoozeMinutes = 60
)

// WeekdaySet is a bitmask of weekdays an alarm repeats on.
// Bit n corresponds to time.Weekday(n) (Sunday = 0).
// The empty set means "fire once, then auto-disable".
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

func (s WeekdaySet) Add(d time.Weekday) WeekdaySet { return s | 1<<uint(d) }

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

func (s WeekdaySet) IsEmpty() bool { return s == 0 }

// Days returns the members in Sunday..Saturday order.
func (s WeekdaySet) Days() []time.Weekday {
	if s == 0 {
		return nil
	}
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Alarm represents a configured wake-up alarm.
// Alarms are owned by the management surface; the engine reads them and only
// writes back LastTriggered and, for one-shot alarms, Enabled=false after firing.
type Alarm struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the unique integer identifier assigned on creation.
	ID int64

	// ─────────────────────────────
	// Trigger time
	// ─────────────────────────────

	// Hour of day, 0-23.
	Hour int

	// Minute of hour, 0-59.
	Minute int

	// RepeatDays is the set of weekdays the alarm recurs on.
	// Empty means the alarm fires once and is then disabled.
	RepeatDays WeekdaySet

	// ─────────────────────────────
	// Behavior
	// ─────────────────────────────

	// Enabled controls whether the alarm is armed at all.
	Enabled bool

	// Label is free-text shown to the user.
	Label string

	// SnoozeEnabled allows the snooze action for this alarm.
	SnoozeEnabled bool

	// SnoozeMinutes is the snooze duration, clamped to [1, 60].
	SnoozeMinutes int

	// Vibrate requests haptics alongside audio where supported.
	Vibrate bool

	// Volume is the playback volume, clamped to [0, 1].
	Volume float64

	// ContentNumber pins the alarm to a fixed content item.
	// Nil means the daily selection decides.
	ContentNumber *int

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set when the alarm is created.
	CreatedAt time.Time

	// LastTriggered is the most recent fire time; nil if it never fired.
	LastTriggered *time.Time
}

// Normalize clamps mutable fields into their valid ranges.
// Hour/minute validity is checked separately via Valid.
func (a *Alarm) Normalize() {
	if a.Volume < 0 {
		a.Volume = 0
	}
	if a.Volume > 1 {
		a.Volume = 1
	}
	if a.SnoozeMinutes < MinSnoozeMinutes {
		a.SnoozeMinutes = MinSnoozeMinutes
	}
	if a.SnoozeMinutes > MaxSnoozeMinutes {
		a.SnoozeMinutes = MaxSnoozeMinutes
	}
}

// Valid reports whether the trigger time is a real wall-clock time.
func (a *Alarm) Valid() bool {
	return a.Hour >= 0 && a.Hour <= 23 && a.Minute >= 0 && a.Minute <= 59
}
