package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aivideo/internal/bootstrap"
	"aivideo/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	if cfg.QueueBackend != infra.QueueRedis {
		logger.Fatal().Str("queue", cfg.QueueBackend).Msg("worker: QUEUE_BACKEND=redis is required; the memory queue runs inside cmd/api")
	}
	if cfg.StoreBackend == infra.StoreMemory {
		logger.Fatal().Msg("worker: a shared store (postgres or supabase) is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		services.Close()
		logger.Fatal().Err(err).Msg("worker: failed to build services")
	}
	defer services.Close()

	// Jobs still queued in redis survive a restart; the ones a worker had
	// already popped are orphaned.
	if _, err := services.Manager.Recover(ctx, true); err != nil {
		logger.Error().Err(err).Msg("worker: recover interrupted jobs")
	}

	pool := services.NewPool(logger)
	pool.Start(context.Background())
	logger.Info().Str("mode", cfg.Mode()).Int("concurrency", cfg.WorkerConcurrency).Msg("worker: consuming queue")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("worker: failed to drain")
	}
	logger.Info().Msg("worker: stopped")
}
