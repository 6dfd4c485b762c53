package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wakebell/wakebell/internal/alarms"
	"github.com/wakebell/wakebell/internal/audio"
	"github.com/wakebell/wakebell/internal/catalog"
	"github.com/wakebell/wakebell/internal/config"
	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/engine"
	"github.com/wakebell/wakebell/internal/httpserver"
	"github.com/wakebell/wakebell/internal/httpserver/deps"
	"github.com/wakebell/wakebell/internal/httpserver/ws"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/playback"
	"github.com/wakebell/wakebell/internal/redis"
	"github.com/wakebell/wakebell/internal/scheduler"
	"github.com/wakebell/wakebell/internal/selection"
	"github.com/wakebell/wakebell/internal/snooze"
	redisstore "github.com/wakebell/wakebell/internal/store/redis"
	"github.com/wakebell/wakebell/internal/version"
)

type App struct {
	cfg             *config.Config
	logger          logger.Logger
	server          *httpserver.Server
	redisClient     *goredis.Client
	engine          *engine.Engine
	hub             *ws.Hub
	snoozes         *snooze.Manager
	alarmReloader   *alarms.Reloader
	catalogReloader *catalog.Reloader
	reconciler      *scheduler.Reconciler
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Initialize Redis store
	store := redisstore.NewStore(redisClient)

	// In-memory registries, populated by the reloaders below.
	registry := alarms.NewRegistry()
	catalogMem := catalog.NewMemory()
	catalogMem.OnUsagePersist(func(number, count int, lastUsed string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.SaveUsage(ctx, number, redisstore.Usage{Count: count, LastUsed: lastUsed}); err != nil {
			loggerClient.Warn("failed to persist usage record",
				logger.Int("number", number),
				logger.Error(err))
		}
	})

	// The scheduler and snooze manager emit into the engine, which is
	// wired after them; the closures only run once timers fire.
	var eng *engine.Engine

	timers := scheduler.NewWallTimers()
	sched := scheduler.New(timers, loggerClient, nil, func(ev domain.AlarmFired) {
		eng.Submit(ev)
	})
	snoozes := snooze.NewManager(store, timers, loggerClient, nil, cfg.MaxSnoozeCount, func(ev domain.SnoozeFired) {
		eng.Submit(ev)
	})

	strategy := selection.NewStrategy(
		cfg.SelectionStrategy,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg.AvoidRecentDays,
	)
	selMgr := selection.NewManager(catalogMem, store, strategy, loggerClient, nil, cfg.HistoryDays)

	// Playback chain: speaker output behind the state machine, with a
	// local focus arbiter standing in for the platform audio session.
	arbiter := playback.NewLocalArbiter(loggerClient)
	output := audio.NewOutput(loggerClient)
	machine := playback.NewMachine(output, arbiter, loggerClient)

	hub := ws.NewHub(loggerClient)
	machine.OnTransition(func(st playback.Status) {
		hub.Broadcast("playback", playbackPayload(st))
	})

	eng = engine.New(engine.Options{
		Registry:    registry,
		Scheduler:   sched,
		Snoozes:     snoozes,
		Selection:   selMgr,
		Catalog:     catalogMem,
		Machine:     machine,
		Timers:      timers,
		Meta:        store,
		Logger:      loggerClient,
		RingTimeout: cfg.RingTimeout,
		Notify:      hub.Broadcast,
	})

	// Create manual reload trigger channels
	reloadTrigger := make(chan struct{}, 1)
	catalogReloadTrigger := make(chan struct{}, 1)

	catalogReloader := catalog.NewReloader(
		cfg.CatalogFile,
		catalogMem,
		store,
		loggerClient,
		cfg.ReloadInterval,
		catalogReloadTrigger,
	)

	alarmReloader := alarms.NewReloader(
		cfg.AlarmFile,
		registry,
		store,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
		eng.Reconcile,
	)

	reconciler := scheduler.NewReconciler(
		eng.Reconcile,
		selMgr.PruneHistory,
		loggerClient,
		cfg.ReconcileInterval,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Version:              version.Version,
		Commit:               version.Commit,
		BuildDate:            version.BuildDate,
		GoVersion:            version.GoVersion,
		TimeNow:              time.Now,
		Registry:             registry,
		Catalog:              catalogMem,
		Scheduler:            sched,
		Snoozes:              snoozes,
		Selection:            selMgr,
		Machine:              machine,
		Engine:               eng,
		RedisClient:          redisClient,
		ReloadTrigger:        reloadTrigger,
		CatalogReloadTrigger: catalogReloadTrigger,
		Hub:                  hub,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:             cfg,
		logger:          loggerClient,
		server:          server,
		redisClient:     redisClient,
		engine:          eng,
		hub:             hub,
		snoozes:         snoozes,
		alarmReloader:   alarmReloader,
		catalogReloader: catalogReloader,
		reconciler:      reconciler,
	}
}

// playbackPayload flattens a machine snapshot for the event feed.
func playbackPayload(st playback.Status) map[string]any {
	payload := map[string]any{
		"state":    st.State.String(),
		"number":   st.Number,
		"title":    st.Title,
		"position": st.Position.Seconds(),
		"volume":   st.Volume,
	}
	if st.Err != "" {
		payload["error"] = st.Err
	}
	return payload
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Wakebell v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Wakebell %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event feed and dispatch loop run for the life of the process.
	go a.hub.Run(ctx)
	go a.engine.Run(ctx)

	// Catalog first so content is resolvable when the alarms arm.
	if err := a.catalogReloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Alarm reloader does the initial load and reconciles the timers.
	if err := a.alarmReloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start alarm reloader: %w", err)
	}
	a.logger.Info("alarm reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Re-arm snoozes that survived a restart.
	if err := a.snoozes.Restore(ctx); err != nil {
		a.logger.Warn("failed to restore snooze state from redis",
			logger.Error(err))
	}

	if err := a.reconciler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reconciler: %w", err)
	}
	a.logger.Info("reconciler started",
		logger.Duration("interval", a.cfg.ReconcileInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.alarmReloader.Stop()
	a.catalogReloader.Stop()
	a.reconciler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Wakebell stopped cleanly")
	return nil
}
