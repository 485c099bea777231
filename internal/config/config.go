package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/benhageman/bid-euchre/internal/history"
)

type Config struct {
	Addr     string
	LogLevel string
	DevLog   bool

	// OutboxSize is the per-client event buffer; a client that falls this
	// far behind is dropped.
	OutboxSize int
	// ForceLastBid is the house rule that stops an all-pass deal.
	ForceLastBid bool

	// RoomIdleTimeout closes rooms that nobody joins.
	RoomIdleTimeout time.Duration

	HistoryTimeout time.Duration
	History        history.Options
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:     get("EUCHRE_ADDR", ":8080"),
		LogLevel: get("EUCHRE_LOG_LEVEL", "info"),
		History: history.Options{
			DatabaseURL:   get("DATABASE_URL", ""),
			NATSURL:       get("NATS_URL", ""),
			RedisAddr:     get("REDIS_ADDR", ""),
			RedisPassword: get("REDIS_PASSWORD", ""),
			KeyPrefix:     get("REDIS_KEY_PREFIX", "euchre:"),
		},
	}

	var err error
	if cfg.DevLog, err = strconv.ParseBool(get("EUCHRE_DEV_LOG", "false")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_DEV_LOG: %w", err)
	}
	if cfg.ForceLastBid, err = strconv.ParseBool(get("EUCHRE_FORCE_LAST_BID", "true")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_FORCE_LAST_BID: %w", err)
	}
	if cfg.OutboxSize, err = positiveInt(get("EUCHRE_OUTBOX_SIZE", "16")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_OUTBOX_SIZE: %w", err)
	}
	if cfg.History.Limit, err = positiveInt(get("EUCHRE_HISTORY_LIMIT", "20")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_HISTORY_LIMIT: %w", err)
	}
	if cfg.History.RedisDB, err = strconv.Atoi(get("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.RoomIdleTimeout, err = positiveDuration(get("EUCHRE_ROOM_IDLE_TIMEOUT", "5m")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_ROOM_IDLE_TIMEOUT: %w", err)
	}
	if cfg.HistoryTimeout, err = time.ParseDuration(get("EUCHRE_HISTORY_TIMEOUT", "3s")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_HISTORY_TIMEOUT: %w", err)
	}
	if cfg.History.TTL, err = time.ParseDuration(get("EUCHRE_HISTORY_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("EUCHRE_HISTORY_TTL: %w", err)
	}
	return cfg, nil
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
