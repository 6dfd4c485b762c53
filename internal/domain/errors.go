package domain

import "errors"

var (
	// ErrSchedulingDenied means the timer backend refused an exact schedule.
	// Fatal to that schedule call; never silently degraded to inexact timing.
	ErrSchedulingDenied = errors.New("exact scheduling denied")

	// ErrSnoozeDisabled means the alarm has snooze turned off.
	ErrSnoozeDisabled = errors.New("snooze disabled for this alarm")

	// ErrSnoozeLimitReached means the per-cycle snooze count is exhausted.
	ErrSnoozeLimitReached = errors.New("snooze limit reached")

	// ErrContentUnavailable means no playable content item could be found.
	ErrContentUnavailable = errors.New("no content available")

	// ErrPlaybackOpenFailed means the audio source could not be opened.
	ErrPlaybackOpenFailed = errors.New("failed to open audio source")

	// ErrFocusDenied means another owner holds exclusive audio output.
	// Retried only on the next explicit user action.
	ErrFocusDenied = errors.New("audio output focus denied")

	// ErrAlarmNotFound means the referenced alarm id is unknown.
	ErrAlarmNotFound = errors.New("alarm not found")
)
