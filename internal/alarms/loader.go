package alarms

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wakebell/wakebell/internal/domain"
)

// DefaultSnoozeMinutes applies when alarms.yaml omits snooze.minutes.
const DefaultSnoozeMinutes = 10

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Loader handles loading and parsing of alarms.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new alarm loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the alarm file into domain alarms.
func (l *Loader) Load() ([]*domain.Alarm, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read alarm file: %w", err)
	}

	var config fileSchema
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse alarm yaml: %w", err)
	}

	seen := make(map[int64]struct{}, len(config.Alarms))
	out := make([]*domain.Alarm, 0, len(config.Alarms))

	for i, entry := range config.Alarms {
		if entry.ID <= 0 {
			return nil, fmt.Errorf("alarm %d: id must be positive, got %d", i, entry.ID)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("alarm %d: duplicate id %d", i, entry.ID)
		}
		seen[entry.ID] = struct{}{}

		hour, minute, err := parseClock(entry.Time)
		if err != nil {
			return nil, fmt.Errorf("alarm %d: %w", entry.ID, err)
		}

		days, err := parseDays(entry.Days)
		if err != nil {
			return nil, fmt.Errorf("alarm %d: %w", entry.ID, err)
		}

		alarm := &domain.Alarm{
			ID:            entry.ID,
			Hour:          hour,
			Minute:        minute,
			RepeatDays:    days,
			Enabled:       boolOr(entry.Enabled, true),
			Label:         entry.Label,
			SnoozeEnabled: boolOr(entry.Snooze.Enabled, true),
			SnoozeMinutes: entry.Snooze.Minutes,
			Vibrate:       entry.Vibrate,
			Volume:        floatOr(entry.Volume, 1.0),
			ContentNumber: entry.ContentNumber,
			CreatedAt:     time.Now(),
		}
		if alarm.SnoozeMinutes == 0 {
			alarm.SnoozeMinutes = DefaultSnoozeMinutes
		}
		alarm.Normalize()

		out = append(out, alarm)
	}

	return out, nil
}

// parseClock parses "HH:MM" in 24-hour notation.
func parseClock(s string) (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM: %w", s, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

func parseDays(names []string) (domain.WeekdaySet, error) {
	var set domain.WeekdaySet
	for _, name := range names {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", name)
		}
		set = set.Add(day)
	}
	return set, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
