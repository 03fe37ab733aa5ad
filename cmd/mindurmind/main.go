package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Spok95/mindurmind/internal/app"
	"github.com/Spok95/mindurmind/internal/config"
	"github.com/Spok95/mindurmind/internal/ingest"
	"github.com/Spok95/mindurmind/internal/jobs"
	"github.com/Spok95/mindurmind/internal/logging"
	"github.com/Spok95/mindurmind/internal/observability"
	"github.com/Spok95/mindurmind/internal/store"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Конфигурация не загрузилась: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Логгер не поднялся: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "mindurmind")
	if err != nil {
		lg.Sugar.Warnw("sentry не инициализировался", "err", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		lg.Sugar.Fatalw("бэкенд хранилища не открылся", "backend", cfg.StoreBackend, "err", err)
	}

	st, err := store.Open(ctx, backend)
	if err != nil {
		lg.Sugar.Fatalw("хранилище не загрузилось", "err", err)
	}
	defer st.Close()

	rec := ingest.New(st, cfg.Location)
	srv := app.NewServer(st, rec, lg.Sugar)
	app.StartHTTP(ctx, cfg.HTTPAddr, srv.Router())
	lg.Sugar.Infow("сервер запущен", "addr", cfg.HTTPAddr, "backend", cfg.StoreBackend)

	runner := jobs.New(ctx, lg.Sugar)
	runner.Every(cfg.SnapshotEvery, "snapshot", jobs.SnapshotJob(st, cfg.SnapshotDir))
	runner.Every(30*time.Second, "gauges", jobs.GaugesJob(st))

	<-ctx.Done()
	lg.Sugar.Infow("остановка по сигналу")
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.OpenSQL(ctx, cfg.DatabaseURL)
	case "redis":
		return store.OpenRedis(ctx, cfg.RedisAddr)
	default:
		return store.NewFileBackend(cfg.DataPath), nil
	}
}
