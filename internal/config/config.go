package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8787"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AlarmFile         string        // path to the alarms.yaml definition file
	CatalogFile       string        // path to the catalog.yaml content listing
	ReloadInterval    time.Duration // interval to reload alarms.yaml (default: 1m)
	ReconcileInterval time.Duration // interval to reconcile armed timers (default: 1h)

	RingTimeout       time.Duration // auto-stop after ringing this long (default: 10m)
	SelectionStrategy string        // "random" | "weighted" | "sequential" | "avoid-recent"
	AvoidRecentDays   int           // exclusion window for the avoid-recent strategy
	HistoryDays       int           // rolling selection history window (default: 30)
	MaxSnoozeCount    int           // max snoozes per ring cycle (default: 10)

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("WAKEBELL_LISTEN_PORT", ":8787"),
		ShutdownTimeout: mustDuration("WAKEBELL_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("WAKEBELL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("WAKEBELL_PRETTY_LOG", true),

		// Definition files
		AlarmFile:         requireEnv("WAKEBELL_ALARM_FILE"),
		CatalogFile:       requireEnv("WAKEBELL_CATALOG_FILE"),
		ReloadInterval:    mustDuration("WAKEBELL_RELOAD_INTERVAL", time.Minute),
		ReconcileInterval: mustDuration("WAKEBELL_RECONCILE_INTERVAL", time.Hour),

		// Engine behavior
		RingTimeout:       mustDuration("WAKEBELL_RING_TIMEOUT", 10*time.Minute),
		SelectionStrategy: getenv("WAKEBELL_SELECTION_STRATEGY", "weighted"),
		AvoidRecentDays:   getenvInt("WAKEBELL_AVOID_RECENT_DAYS", 7),
		HistoryDays:       getenvInt("WAKEBELL_HISTORY_DAYS", 30),
		MaxSnoozeCount:    getenvInt("WAKEBELL_MAX_SNOOZE_COUNT", 10),

		// Redis settings
		RedisAddr:           requireEnv("WAKEBELL_REDIS_ADDR"),
		RedisUser:           getenv("WAKEBELL_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("WAKEBELL_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("WAKEBELL_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	switch cfg.SelectionStrategy {
	case "random", "weighted", "sequential", "avoid-recent":
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown WAKEBELL_SELECTION_STRATEGY %q", cfg.SelectionStrategy))
	}

	if cfg.HistoryDays < cfg.AvoidRecentDays {
		panic("❌ FATAL: WAKEBELL_HISTORY_DAYS must cover WAKEBELL_AVOID_RECENT_DAYS")
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
