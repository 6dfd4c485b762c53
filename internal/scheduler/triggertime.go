package scheduler

import (
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

// NextFireTime computes the next absolute fire time for an alarm at
// (hour, minute) relative to now.
//
// With an empty repeat set the result is today at that time, or tomorrow if
// it already passed. With a non-empty set it is the earliest upcoming
// occurrence among the repeat weekdays. All arithmetic goes through
// time.Date in now's location, so wall-clock times skipped or repeated by a
// DST transition normalize to the nearest valid instant.
func NextFireTime(now time.Time, hour, minute int, days domain.WeekdaySet) time.Time {
	if days.IsEmpty() {
		at := atTime(now, 0, hour, minute)
		if !at.After(now) {
			at = atTime(now, 1, hour, minute)
		}
		return at
	}

	var best time.Time
	for _, day := range days.Days() {
		candidate := NextFireTimeForDay(now, hour, minute, day)
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best
}

// NextFireTimeForDay computes the nearest future occurrence of weekday at
// (hour, minute). Today counts only while the time of day has not passed;
// otherwise the offset is 1..7 days, never 0.
func NextFireTimeForDay(now time.Time, hour, minute int, day time.Weekday) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	at := atTime(now, offset, hour, minute)
	if !at.After(now) {
		at = atTime(now, offset+7, hour, minute)
	}
	return at
}

// atTime returns now's date shifted by addDays, at (hour, minute, 0, 0)
// in now's location.
func atTime(now time.Time, addDays, hour, minute int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+addDays, hour, minute, 0, 0, now.Location())
}
