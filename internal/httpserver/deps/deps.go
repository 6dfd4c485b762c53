package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wakebell/wakebell/internal/alarms"
	"github.com/wakebell/wakebell/internal/catalog"
	"github.com/wakebell/wakebell/internal/engine"
	"github.com/wakebell/wakebell/internal/httpserver/ws"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/playback"
	"github.com/wakebell/wakebell/internal/scheduler"
	"github.com/wakebell/wakebell/internal/selection"
	"github.com/wakebell/wakebell/internal/snooze"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Registry  *alarms.Registry   // alarm definitions + engine overlay
	Catalog   *catalog.Memory    // content items
	Scheduler *scheduler.Scheduler
	Snoozes   *snooze.Manager
	Selection *selection.Manager
	Machine   *playback.Machine
	Engine    *engine.Engine

	RedisClient          *redis.Client // Redis client connection, nil when degraded
	ReloadTrigger        chan struct{} // Channel to trigger manual alarm reload
	CatalogReloadTrigger chan struct{} // Channel to trigger manual catalog reload
	Hub                  *ws.Hub       // Event feed hub
}
