package domain

import (
	"sort"
	"time"
)

// DateFormat is the calendar-date key used for selection caching and history.
const DateFormat = "2006-01-02"

// SelectionRecord is the per-day map of chosen content numbers.
// It backs same-day idempotent lookups and the avoid-recent strategy,
// capped to a rolling window by Prune.
type SelectionRecord struct {
	// Days maps a local date string (YYYY-MM-DD) to the chosen content number.
	Days map[string]int
}

func NewSelectionRecord() *SelectionRecord {
	return &SelectionRecord{Days: make(map[string]int)}
}

// Get returns the choice recorded for date, if any.
func (r *SelectionRecord) Get(date string) (int, bool) {
	n, ok := r.Days[date]
	return n, ok
}

// Set records the choice for date.
func (r *SelectionRecord) Set(date string, number int) {
	if r.Days == nil {
		r.Days = make(map[string]int)
	}
	r.Days[date] = number
}

// Prune drops entries older than keepDays relative to now.
func (r *SelectionRecord) Prune(now time.Time, keepDays int) {
	cutoff := now.AddDate(0, 0, -keepDays).Format(DateFormat)
	for date := range r.Days {
		if date < cutoff {
			delete(r.Days, date)
		}
	}
}

// Recent returns the content numbers chosen within the last `days` days.
func (r *SelectionRecord) Recent(now time.Time, days int) []int {
	cutoff := now.AddDate(0, 0, -days).Format(DateFormat)
	var numbers []int
	for date, n := range r.Days {
		if date >= cutoff {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// Latest returns the most recent dated choice, or false when empty.
func (r *SelectionRecord) Latest() (int, bool) {
	if len(r.Days) == 0 {
		return 0, false
	}
	dates := make([]string, 0, len(r.Days))
	for date := range r.Days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return r.Days[dates[len(dates)-1]], true
}
