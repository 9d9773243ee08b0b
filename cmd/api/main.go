package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aivideo/internal/bootstrap"
	"aivideo/internal/http/handlers"
	httpapi "aivideo/internal/http/httpapi"
	"aivideo/internal/infra"
	"aivideo/internal/infra/geoip"
	"aivideo/internal/jobs"
	"aivideo/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		services.Close()
		logger.Fatal().Err(err).Msg("api: failed to build services")
	}
	defer services.Close()

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	if cfg.RunwayConfigured() {
		_, _ = bootstrap.CheckRunwayAccount(ctx, services.Runway, 10*time.Second, logger)
	}

	// With the memory queue the API runs the workers itself. With redis,
	// cmd/worker owns them and recovers orphaned jobs on its own start.
	var pool *jobs.Pool
	if cfg.QueueBackend == infra.QueueMemory {
		if _, err := services.Manager.Recover(ctx, false); err != nil {
			logger.Error().Err(err).Msg("api: recover interrupted jobs")
		}
		pool = services.NewPool(logger)
		// Not ctx: Shutdown cancels in-flight jobs with a readable cause.
		pool.Start(context.Background())
	}

	go services.Manager.RunSweeper(ctx, cfg.SweepInterval, cfg.Retention)

	app := handlers.NewApp(services.Manager, services.Hub, services.Runway, cfg, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("mode", cfg.Mode()).
			Str("store", cfg.StoreBackend).
			Str("queue", cfg.QueueBackend).
			Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if pool != nil {
		if err := pool.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to drain workers")
		}
	}
	logger.Info().Msg("server stopped")
}
