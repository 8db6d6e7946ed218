package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"thumbforge/internal/adapter/repo"
	"thumbforge/internal/infra"
	"thumbforge/internal/providers/generate"
	"thumbforge/internal/providers/hosting"
	"thumbforge/internal/queue"
	"thumbforge/internal/statuscache"
	"thumbforge/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer rdb.Close()

	if cfg.GenerateAPIKey == "" {
		logger.Warn().Msg("worker: generation api key missing, queued jobs will fail fast")
	}

	w := worker.New(worker.Options{
		Queue: queue.NewRedis(rdb, ""),
		Cache: statuscache.NewRedis(rdb),
		Jobs:  repo.NewJobRepository(pool),
		Generator: generate.NewClient(generate.Options{
			BaseURL: cfg.GenerateBaseURL,
			APIKey:  cfg.GenerateAPIKey,
			Model:   cfg.GenerateModel,
		}),
		Uploader: hosting.NewClient(hosting.Options{
			BaseURL: cfg.HostingBaseURL,
			APIKey:  cfg.HostingAPIKey,
			Folder:  cfg.HostingFolder,
		}),
		Logger:         logger,
		HasCredentials: cfg.GenerateAPIKey != "",
		StatusTTL:      cfg.StatusTTL,
		PollEvery:      cfg.WorkerPollEvery,
	})

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
