package domain

import "time"

// Event is an inbound occurrence consumed by the engine's dispatch loop.
// Timer callbacks and user actions are both delivered this way so the
// state transitions stay independent of the delivery mechanism.
type Event interface {
	eventMarker()
}

// AlarmFired is emitted when an armed occurrence reaches its fire time.
type AlarmFired struct {
	AlarmID int64

	// Day is the repeat weekday of the occurrence that fired.
	// Nil for one-shot alarms.
	Day *time.Weekday

	At time.Time
}

func (AlarmFired) eventMarker() {}

// SnoozeFired is emitted when a snooze deadline is reached.
type SnoozeFired struct {
	AlarmID int64
	At      time.Time
}

func (SnoozeFired) eventMarker() {}

// RingTimeout is emitted when an alarm has rung unattended for too long.
type RingTimeout struct {
	AlarmID int64
	At      time.Time
}

func (RingTimeout) eventMarker() {}

// FocusChangeKind classifies an external audio-focus interruption.
type FocusChangeKind int

const (
	// FocusLostPermanent: another owner took the output for good; stop.
	FocusLostPermanent FocusChangeKind = iota
	// FocusLostTransient: short interruption; pause and wait.
	FocusLostTransient
	// FocusLostTransientDuck: keep playing at reduced volume.
	FocusLostTransientDuck
	// FocusRegained: the interruption ended.
	FocusRegained
)

// FocusChanged is emitted by the focus arbiter on external interruption.
type FocusChanged struct {
	Kind FocusChangeKind
	At   time.Time
}

func (FocusChanged) eventMarker() {}

// SnoozeRequested is a user action routed through the engine loop.
type SnoozeRequested struct {
	AlarmID int64
	At      time.Time
}

func (SnoozeRequested) eventMarker() {}

// DismissRequested is a user action routed through the engine loop.
type DismissRequested struct {
	AlarmID int64
	At      time.Time
}

func (DismissRequested) eventMarker() {}
