package scheduler

import (
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

// localDate builds a local time for tests.
func localDate(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func TestNextFireTimeOneShot(t *testing.T) {
	// 2026-08-24 is a Monday.
	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{
			name: "time not yet passed fires today",
			now:  localDate(2026, time.August, 24, 6, 0),
			hour: 6, minute: 30,
			want: localDate(2026, time.August, 24, 6, 30),
		},
		{
			name: "time already passed fires tomorrow",
			now:  localDate(2026, time.August, 24, 7, 0),
			hour: 6, minute: 30,
			want: localDate(2026, time.August, 25, 6, 30),
		},
		{
			name: "exact fire time counts as passed",
			now:  localDate(2026, time.August, 24, 6, 30),
			hour: 6, minute: 30,
			want: localDate(2026, time.August, 25, 6, 30),
		},
		{
			name: "month boundary",
			now:  localDate(2026, time.August, 31, 23, 0),
			hour: 7, minute: 0,
			want: localDate(2026, time.September, 1, 7, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFireTime(tt.now, tt.hour, tt.minute, 0)
			if !got.Equal(tt.want) {
				t.Errorf("NextFireTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextFireTimeOneShotAlwaysWithin24h(t *testing.T) {
	now := localDate(2026, time.August, 24, 13, 37)
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 1, 29, 30, 59} {
			got := NextFireTime(now, hour, minute, 0)
			if !got.After(now) {
				t.Fatalf("NextFireTime(%02d:%02d) = %v, not after now %v", hour, minute, got, now)
			}
			if got.Sub(now) > 24*time.Hour+time.Minute {
				t.Fatalf("NextFireTime(%02d:%02d) = %v, more than 24h+1m after now", hour, minute, got)
			}
		}
	}
}

func TestNextFireTimeWeekdaySet(t *testing.T) {
	weekdaysMonFri := domain.NewWeekdaySet(
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	)

	tests := []struct {
		name string
		now  time.Time
		days domain.WeekdaySet
		hour int
		min  int
		want time.Time
	}{
		{
			// 2026-08-29 is a Saturday.
			name: "saturday morning rolls to monday",
			now:  localDate(2026, time.August, 29, 7, 5),
			days: weekdaysMonFri,
			hour: 7, min: 0,
			want: localDate(2026, time.August, 31, 7, 0),
		},
		{
			name: "matching weekday before fire time fires today",
			now:  localDate(2026, time.August, 31, 6, 59), // Monday
			days: weekdaysMonFri,
			hour: 7, min: 0,
			want: localDate(2026, time.August, 31, 7, 0),
		},
		{
			name: "matching weekday after fire time waits for tuesday",
			now:  localDate(2026, time.August, 31, 7, 1), // Monday
			days: weekdaysMonFri,
			hour: 7, min: 0,
			want: localDate(2026, time.September, 1, 7, 0),
		},
		{
			name: "single day a week out",
			now:  localDate(2026, time.August, 31, 8, 0), // Monday
			days: domain.NewWeekdaySet(time.Monday),
			hour: 7, min: 0,
			want: localDate(2026, time.September, 7, 7, 0),
		},
		{
			name: "all seven days behaves like one-shot",
			now:  localDate(2026, time.August, 29, 9, 0),
			days: domain.NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday),
			hour: 8, min: 30,
			want: localDate(2026, time.August, 30, 8, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFireTime(tt.now, tt.hour, tt.min, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("NextFireTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextFireTimeLandsOnRequestedWeekday(t *testing.T) {
	now := localDate(2026, time.August, 29, 14, 45)
	for d := time.Sunday; d <= time.Saturday; d++ {
		days := domain.NewWeekdaySet(d)
		got := NextFireTime(now, 7, 30, days)

		if got.Weekday() != d {
			t.Errorf("NextFireTime(day=%v) landed on %v", d, got.Weekday())
		}
		if got.Hour() != 7 || got.Minute() != 30 {
			t.Errorf("NextFireTime(day=%v) = %v, wrong time of day", d, got)
		}
		if !got.After(now) {
			t.Errorf("NextFireTime(day=%v) = %v, not in the future", d, got)
		}
		if got.Sub(now) > 7*24*time.Hour+time.Minute {
			t.Errorf("NextFireTime(day=%v) = %v, more than a week out", d, got)
		}
	}
}

func TestNextFireTimeForDayNeverZeroOffsetWhenPassed(t *testing.T) {
	now := localDate(2026, time.August, 31, 12, 0) // Monday noon
	got := NextFireTimeForDay(now, 7, 0, time.Monday)
	want := localDate(2026, time.September, 7, 7, 0)
	if !got.Equal(want) {
		t.Errorf("NextFireTimeForDay() = %v, want %v", got, want)
	}
}
