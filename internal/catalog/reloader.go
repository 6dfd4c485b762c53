package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/wakebell/wakebell/internal/logger"
	redisstore "github.com/wakebell/wakebell/internal/store/redis"
)

// Reloader handles periodic reloading of the catalog file, merging
// persisted usage statistics back in after every load.
type Reloader struct {
	loader        *Loader
	catalog       *Memory
	store         *redisstore.Store
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewReloader creates a new catalog reloader
func NewReloader(
	catalogFile string,
	catalog *Memory,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Reloader {
	return &Reloader{
		loader:        NewLoader(catalogFile),
		catalog:       catalog,
		store:         store,
		logger:        log,
		interval:      interval,
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
					r.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual catalog reload triggered")
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload catalog",
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

// Reload loads the catalog file and merges persisted usage statistics.
func (r *Reloader) Reload(ctx context.Context) error {
	r.logger.Info("reloading catalog from file")

	items, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	r.catalog.Update(items)

	// Merge persisted play counts (best effort).
	if r.store != nil {
		stored, err := r.store.LoadAllUsage(ctx)
		if err != nil {
			r.logger.Warn("failed to load usage records from redis",
				logger.Error(err))
		} else {
			usage := make(map[int]UsageStat, len(stored))
			for number, u := range stored {
				usage[number] = UsageStat{Count: u.Count, LastUsed: u.LastUsed}
			}
			r.catalog.ApplyUsage(usage)
		}
	}

	available := len(r.catalog.ListAvailable())
	r.logger.Info("loaded catalog from file",
		logger.Int("items", r.catalog.Count()),
		logger.Int("available", available))
	return nil
}
