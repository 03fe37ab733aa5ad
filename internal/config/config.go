package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	StoreBackend  string // file|postgres|redis
	DataPath      string // файл блоба для file-бэкенда
	DatabaseURL   string // для postgres-бэкенда
	RedisAddr     string // для redis-бэкенда
	Location      *time.Location
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
	SnapshotDir   string
	SnapshotEvery time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	every, err := time.ParseDuration(getenv("SNAPSHOT_EVERY", "1h"))
	if err != nil {
		return nil, fmt.Errorf("SNAPSHOT_EVERY: %w", err)
	}

	cfg := &Config{
		StoreBackend:  strings.ToLower(getenv("STORE_BACKEND", "file")),
		DataPath:      getenv("DATA_PATH", "./data/mindurmind.json"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		Location:      loc,
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("ENV", "dev"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		SnapshotDir:   getenv("SNAPSHOT_DIR", "./data/snapshots"),
		SnapshotEvery: every,
	}

	switch cfg.StoreBackend {
	case "file", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_BACKEND=postgres требует DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("неизвестный STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
