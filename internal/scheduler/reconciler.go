package scheduler

import (
	"context"
	"time"

	"github.com/wakebell/wakebell/internal/logger"
)

// DefaultReconcileInterval bounds the damage of a missed clock or
// timezone change: within one interval every timer is re-derived.
const DefaultReconcileInterval = time.Hour

// Reconciler periodically re-derives all armed occurrences and prunes
// the selection history. Wall timers drift silently when the host
// sleeps or its clock jumps, so a standing reconcile is the safety net.
type Reconciler struct {
	reconcile func(ctx context.Context)
	prune     func(ctx context.Context) error
	logger    logger.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(
	reconcile func(ctx context.Context),
	prune func(ctx context.Context) error,
	log logger.Logger,
	interval time.Duration,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}

	return &Reconciler{
		reconcile: reconcile,
		prune:     prune,
		logger:    log,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic reconcile process
func (r *Reconciler) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.run(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reconciler
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run(ctx context.Context) {
	r.logger.Debug("running periodic reconcile")

	r.reconcile(ctx)

	if r.prune != nil {
		if err := r.prune(ctx); err != nil {
			r.logger.Warn("failed to prune selection history",
				logger.Error(err))
		}
	}
}
