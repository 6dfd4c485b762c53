package alarms

import (
	"context"
	"fmt"
	"time"

	"github.com/wakebell/wakebell/internal/logger"
	redisstore "github.com/wakebell/wakebell/internal/store/redis"
)

// Reloader handles periodic reloading of the alarm file.
// After every successful reload it invokes onReload so the scheduler
// can reconcile its timers against the new definitions.
type Reloader struct {
	loader        *Loader
	registry      *Registry
	store         *redisstore.Store
	logger        logger.Logger
	interval      time.Duration
	onReload      func(ctx context.Context)
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewReloader creates a new alarm reloader
func NewReloader(
	alarmFile string,
	registry *Registry,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
	onReload func(ctx context.Context),
) *Reloader {
	return &Reloader{
		loader:        NewLoader(alarmFile),
		registry:      registry,
		store:         store,
		logger:        log,
		interval:      interval,
		onReload:      onReload,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic reload process
func (r *Reloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload alarms",
						logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual alarm reload triggered")
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload alarms",
						logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (r *Reloader) Stop() {
	close(r.stopCh)
}

// Reload loads the alarm file, overlays persisted engine state, updates
// the registry and kicks a reconcile.
func (r *Reloader) Reload(ctx context.Context) error {
	r.logger.Info("reloading alarms from file")

	loaded, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load alarms: %w", err)
	}

	r.registry.Update(loaded)

	// Overlay persisted fire history and one-shot disables (best effort).
	if r.store != nil {
		stored, err := r.store.LoadAllAlarmMeta(ctx)
		if err != nil {
			r.logger.Warn("failed to load alarm meta from redis",
				logger.Error(err))
		} else {
			metas := make(map[int64]Meta, len(stored))
			for id, m := range stored {
				metas[id] = Meta{LastTriggered: m.LastTriggered, Disabled: m.Disabled}
			}
			r.registry.ApplyMeta(metas)
		}
	}

	r.logger.Info("loaded alarms from file",
		logger.Int("count", r.registry.Count()))

	if r.onReload != nil {
		r.onReload(ctx)
	}
	return nil
}
