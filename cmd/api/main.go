package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"thumbforge/internal/adapter/repo"
	httpapi "thumbforge/internal/http"
	"thumbforge/internal/http/handlers"
	"thumbforge/internal/infra"
	"thumbforge/internal/providers/generate"
	"thumbforge/internal/providers/hosting"
	"thumbforge/internal/queue"
	"thumbforge/internal/service"
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

	ctx := context.Background()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect database")
	}
	defer dbpool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect redis")
	}
	defer rdb.Close()

	jobs := repo.NewJobRepository(dbpool)
	users := repo.NewUserRepository(dbpool)
	jobQueue := queue.NewRedis(rdb, "")
	cache := statuscache.NewRedis(rdb)

	generator := generate.NewClient(generate.Options{
		BaseURL: cfg.GenerateBaseURL,
		APIKey:  cfg.GenerateAPIKey,
		Model:   cfg.GenerateModel,
	})
	uploader := hosting.NewClient(hosting.Options{
		BaseURL: cfg.HostingBaseURL,
		APIKey:  cfg.HostingAPIKey,
		Folder:  cfg.HostingFolder,
	})

	app := &handlers.App{
		Cfg:         cfg,
		Logger:      logger,
		Submissions: service.NewSubmission(jobs, jobQueue, cache, logger, cfg.StatusTTL),
		Status:      service.NewStatusReader(cache, jobs, logger),
		Jobs:        jobs,
		Users:       users,
		Worker: worker.New(worker.Options{
			Queue:          jobQueue,
			Cache:          cache,
			Jobs:           jobs,
			Generator:      generator,
			Uploader:       uploader,
			Logger:         logger,
			HasCredentials: cfg.GenerateAPIKey != "",
			StatusTTL:      cfg.StatusTTL,
			PollEvery:      cfg.WorkerPollEvery,
		}),
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: server stopped")
}
