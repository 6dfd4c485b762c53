package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/wakebell/wakebell/internal/alarms"
	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/playback"
	"github.com/wakebell/wakebell/internal/scheduler"
	"github.com/wakebell/wakebell/internal/selection"
	"github.com/wakebell/wakebell/internal/snooze"
	redisstore "github.com/wakebell/wakebell/internal/store/redis"
)

// MetaStore persists the engine-owned alarm overlay.
type MetaStore interface {
	SaveAlarmMeta(ctx context.Context, alarmID int64, meta redisstore.AlarmMeta) error
}

// NotifyFunc receives outbound engine notifications for the event feed.
type NotifyFunc func(event string, payload any)

// Engine is the single dispatch loop tying the pieces together: timer
// fires and user actions arrive as domain events on one channel and are
// handled strictly in order, so no two transitions ever race.
type Engine struct {
	registry  *alarms.Registry
	sched     *scheduler.Scheduler
	snoozes   *snooze.Manager
	selection *selection.Manager
	catalog   selection.Catalog
	machine   *playback.Machine
	timers    scheduler.TimerService
	meta      MetaStore
	logger    logger.Logger
	clock     func() time.Time

	ringTimeout time.Duration
	events      chan domain.Event
	notify      NotifyFunc

	// ringing is only touched from the dispatch goroutine.
	ringing int64
}

type Options struct {
	Registry    *alarms.Registry
	Scheduler   *scheduler.Scheduler
	Snoozes     *snooze.Manager
	Selection   *selection.Manager
	Catalog     selection.Catalog
	Machine     *playback.Machine
	Timers      scheduler.TimerService
	Meta        MetaStore
	Logger      logger.Logger
	Clock       func() time.Time
	RingTimeout time.Duration
	Notify      NotifyFunc
}

func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(string, any) {}
	}
	return &Engine{
		registry:    opts.Registry,
		sched:       opts.Scheduler,
		snoozes:     opts.Snoozes,
		selection:   opts.Selection,
		catalog:     opts.Catalog,
		machine:     opts.Machine,
		timers:      opts.Timers,
		meta:        opts.Meta,
		logger:      opts.Logger,
		clock:       clock,
		ringTimeout: opts.RingTimeout,
		events:      make(chan domain.Event, 64),
		notify:      notify,
	}
}

// Submit queues an event for the dispatch loop.
func (e *Engine) Submit(ev domain.Event) {
	e.events <- ev
}

// Run consumes events until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine dispatch loop started")
	for {
		select {
		case ev := <-e.events:
			e.dispatch(ctx, ev)
		case <-ctx.Done():
			e.logger.Info("engine dispatch loop stopped")
			return
		}
	}
}

// Reconcile re-derives every timer from the current registry contents
// and drops snooze state for alarms that no longer exist.
func (e *Engine) Reconcile(ctx context.Context) {
	failed := e.sched.ReconcileAll(e.registry.GetEnabled())
	for id, err := range failed {
		e.notify("schedule_failed", map[string]any{"alarm_id": id, "error": err.Error()})
	}

	for _, id := range e.snoozes.TrackedIDs() {
		if _, ok := e.registry.GetByID(id); ok {
			continue
		}
		if err := e.snoozes.Clear(ctx, id); err != nil {
			e.logger.Warn("failed to clear snooze for deleted alarm",
				logger.Int64("alarm_id", id),
				logger.Error(err))
			continue
		}
		e.logger.Info("cleared snooze state for deleted alarm",
			logger.Int64("alarm_id", id))
	}
}

func (e *Engine) dispatch(ctx context.Context, ev domain.Event) {
	switch ev := ev.(type) {
	case domain.AlarmFired:
		e.handleAlarmFired(ctx, ev)
	case domain.SnoozeFired:
		e.handleSnoozeFired(ctx, ev)
	case domain.RingTimeout:
		e.handleRingTimeout(ev)
	case domain.SnoozeRequested:
		e.handleSnoozeRequested(ctx, ev)
	case domain.DismissRequested:
		e.handleDismissRequested(ctx, ev)
	case domain.FocusChanged:
		e.machine.HandleFocusChange(ev.Kind)
		e.notify("focus_changed", map[string]any{"kind": int(ev.Kind)})
	default:
		e.logger.Warn("unknown event type",
			logger.String("event", fmt.Sprintf("%T", ev)))
	}
}

func (e *Engine) handleAlarmFired(ctx context.Context, ev domain.AlarmFired) {
	alarm, ok := e.registry.GetByID(ev.AlarmID)
	if !ok {
		e.logger.Warn("fired alarm no longer exists",
			logger.Int64("alarm_id", ev.AlarmID))
		return
	}
	if !alarm.Enabled {
		e.logger.Debug("fired alarm is disabled, ignoring",
			logger.Int64("alarm_id", ev.AlarmID))
		return
	}

	e.logger.Info("alarm fired",
		logger.Int64("alarm_id", alarm.ID),
		logger.String("label", alarm.Label))

	e.registry.UpdateLastTriggered(alarm.ID, ev.At)

	meta := redisstore.AlarmMeta{LastTriggered: &ev.At}
	if alarm.RepeatDays.IsEmpty() {
		// One-shot alarms disarm themselves after firing.
		e.registry.SetEnabled(alarm.ID, false)
		meta.Disabled = true
	} else if ev.Day != nil {
		if err := e.sched.RearmAfterFire(alarm, *ev.Day); err != nil {
			e.logger.Error("failed to re-arm fired occurrence",
				logger.Int64("alarm_id", alarm.ID),
				logger.Error(err))
		}
	}

	if err := e.meta.SaveAlarmMeta(ctx, alarm.ID, meta); err != nil {
		e.logger.Warn("failed to persist alarm meta",
			logger.Int64("alarm_id", alarm.ID),
			logger.Error(err))
	}

	e.ring(ctx, alarm)
	e.notify("alarm_fired", map[string]any{"alarm_id": alarm.ID, "label": alarm.Label})
}

func (e *Engine) handleSnoozeFired(ctx context.Context, ev domain.SnoozeFired) {
	alarm, ok := e.registry.GetByID(ev.AlarmID)
	if !ok {
		e.logger.Warn("snoozed alarm no longer exists",
			logger.Int64("alarm_id", ev.AlarmID))
		return
	}

	e.logger.Info("snooze deadline reached, ringing again",
		logger.Int64("alarm_id", alarm.ID))

	e.ring(ctx, alarm)
	e.notify("snooze_fired", map[string]any{"alarm_id": alarm.ID})
}

func (e *Engine) handleRingTimeout(ev domain.RingTimeout) {
	if e.ringing != ev.AlarmID {
		return
	}

	e.logger.Info("ring timeout reached, stopping playback",
		logger.Int64("alarm_id", ev.AlarmID))

	e.machine.Stop()
	e.ringing = 0
	e.notify("ring_timeout", map[string]any{"alarm_id": ev.AlarmID})
}

func (e *Engine) handleSnoozeRequested(ctx context.Context, ev domain.SnoozeRequested) {
	alarm, ok := e.registry.GetByID(ev.AlarmID)
	if !ok {
		e.logger.Warn("snooze requested for unknown alarm",
			logger.Int64("alarm_id", ev.AlarmID))
		return
	}

	e.stopRinging(ev.AlarmID)

	deadline, count, err := e.snoozes.Snooze(ctx, alarm)
	if err != nil {
		e.logger.Warn("snooze rejected",
			logger.Int64("alarm_id", alarm.ID),
			logger.Error(err))
		e.notify("snooze_rejected", map[string]any{"alarm_id": alarm.ID, "error": err.Error()})
		return
	}

	e.notify("snoozed", map[string]any{
		"alarm_id": alarm.ID,
		"count":    count,
		"deadline": deadline,
	})
}

func (e *Engine) handleDismissRequested(ctx context.Context, ev domain.DismissRequested) {
	e.stopRinging(ev.AlarmID)

	if err := e.snoozes.Clear(ctx, ev.AlarmID); err != nil {
		e.logger.Warn("failed to clear snooze state on dismiss",
			logger.Int64("alarm_id", ev.AlarmID),
			logger.Error(err))
	}

	e.logger.Info("alarm dismissed",
		logger.Int64("alarm_id", ev.AlarmID))
	e.notify("dismissed", map[string]any{"alarm_id": ev.AlarmID})
}

// ring selects the content and starts playback for one alarm, arming
// the unattended-ring timeout.
func (e *Engine) ring(ctx context.Context, alarm *domain.Alarm) {
	item := e.selectContent(ctx, alarm)
	if item == nil {
		e.logger.Error("no content available to play",
			logger.Int64("alarm_id", alarm.ID),
			logger.Error(domain.ErrContentUnavailable))
		e.notify("ring_failed", map[string]any{
			"alarm_id": alarm.ID,
			"error":    domain.ErrContentUnavailable.Error(),
		})
		return
	}

	if err := e.machine.Play(item, alarm.Volume); err != nil {
		e.logger.Error("failed to start playback",
			logger.Int64("alarm_id", alarm.ID),
			logger.Int("number", item.Number),
			logger.Error(err))
		e.notify("ring_failed", map[string]any{
			"alarm_id": alarm.ID,
			"error":    err.Error(),
		})
		return
	}

	e.ringing = alarm.ID
	if e.ringTimeout > 0 {
		id := alarm.ID
		at := e.clock().Add(e.ringTimeout)
		err := e.timers.Arm(ringKey(id), at, func() {
			e.Submit(domain.RingTimeout{AlarmID: id, At: e.clock()})
		})
		if err != nil {
			e.logger.Warn("failed to arm ring timeout",
				logger.Int64("alarm_id", id),
				logger.Error(err))
		}
	}
}

// selectContent resolves what to play: a pinned catalog number when the
// alarm has one and it is playable, the daily selection otherwise.
func (e *Engine) selectContent(ctx context.Context, alarm *domain.Alarm) *domain.ContentItem {
	if alarm.ContentNumber != nil {
		if item := e.catalog.ByNumber(*alarm.ContentNumber); item != nil && item.Available {
			return item
		}
		e.logger.Warn("pinned content unavailable, falling back to daily selection",
			logger.Int64("alarm_id", alarm.ID),
			logger.Int("number", *alarm.ContentNumber))
	}

	item, err := e.selection.TodaysSelection(ctx)
	if err != nil {
		e.logger.Error("daily selection failed",
			logger.Error(err))
		return nil
	}
	return item
}

func (e *Engine) stopRinging(alarmID int64) {
	e.timers.Cancel(ringKey(alarmID))
	e.machine.Stop()
	if e.ringing == alarmID {
		e.ringing = 0
	}
}

func ringKey(alarmID int64) string {
	return fmt.Sprintf("ring:%d", alarmID)
}
