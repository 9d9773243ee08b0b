// Package bootstrap wires configuration into the job stack shared by the
// API and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"aivideo/internal/adapter/repo"
	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/infra"
	"aivideo/internal/infra/credentials"
	"aivideo/internal/jobs"
	"aivideo/internal/providers/runway"
	"aivideo/internal/providers/video"
)

const demoDelay = 2 * time.Second

// Services is the assembled job stack.
type Services struct {
	Config     *infra.Config
	Store      domain.JobStore
	Queue      jobs.Queue
	Runway     *runway.Client
	Generators *video.Registry
	Hub        *events.Hub
	Publisher  events.Publisher
	Manager    *jobs.Manager
	Runner     *jobs.Runner

	closers []func()
}

// Build connects the configured store, queue and event sinks. Close
// releases everything Build opened, also after a partial failure.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Services, error) {
	s := &Services{Config: cfg}

	var sqlRunner *infra.SQLRunner
	switch cfg.StoreBackend {
	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, pool.Close)
		sqlRunner = infra.NewSQLRunner(pool, logger)
		s.Store = repo.NewJobRepository(sqlRunner)
	case infra.StoreSupabase:
		client, err := infra.NewSupabaseClient(cfg)
		if err != nil {
			return s, err
		}
		s.Store = repo.NewSupabaseJobRepository(client, cfg.SupabaseTable)
	default:
		s.Store = repo.NewMemoryJobRepository()
	}

	switch cfg.QueueBackend {
	case infra.QueueRedis:
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.Queue = jobs.NewRedisQueue(redis.Cmdable(rdb), cfg.RedisQueueKey, cfg.QueueCapacity)
	default:
		s.Queue = jobs.NewMemoryQueue(cfg.QueueCapacity)
	}
	s.closers = append(s.closers, func() { _ = s.Queue.Close() })

	// A key stored with cmd/runwaykey is used when the environment has none.
	if !cfg.RunwayConfigured() && sqlRunner != nil {
		key, ok, err := credentials.NewStore(sqlRunner).RunwayKey(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("bootstrap: load runway key from store")
		case ok:
			cfg.RunwayAPIKey = key.APIKey
			logger.Info().
				Str("key", key.Hint()).
				Time("rotated_at", key.RotatedAt).
				Msg("bootstrap: using stored runway key")
		}
	}

	client, err := runway.NewClient(runway.Options{
		APIKey:     cfg.RunwayAPIKey,
		BaseURL:    cfg.RunwayBaseURL,
		Model:      cfg.RunwayModel,
		Version:    cfg.RunwayVersion,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		return s, fmt.Errorf("configure runway: %w", err)
	}
	s.Runway = client

	demo := video.NewDemoGenerator(cfg.DemoVideoURL, demoDelay)
	if cfg.RunwayConfigured() {
		poller := runway.NewPoller(client, &logger)
		poller.MaxAttempts = cfg.PollMaxAttempts
		poller.Floor = cfg.PollFloor
		poller.Step = cfg.PollStep
		poller.Cap = cfg.PollCap
		poller.RetryDelay = cfg.PollRetryDelay
		s.Generators = video.NewRegistry(demo, video.NewRunwayGenerator(client, poller))
	} else {
		logger.Warn().Msg("bootstrap: RUNWAY_API_KEY missing or malformed, running in demo mode")
		s.Generators = video.NewRegistry(demo)
	}

	s.Hub = events.NewHub()
	s.closers = append(s.closers, s.Hub.Close)
	publishers := []events.Publisher{s.Hub}
	nc, err := infra.NewNATSConn(cfg, logger)
	if err != nil {
		// Events are best effort; the service runs without NATS.
		logger.Warn().Err(err).Msg("bootstrap: nats unavailable")
	} else if nc != nil {
		s.closers = append(s.closers, nc.Close)
		publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATSPrefix))
	}
	s.Publisher = events.NewMulti(logger, publishers...)

	s.Manager = jobs.NewManager(s.Store, s.Queue, s.Generators, s.Publisher, logger, jobs.Options{MinPromptLength: cfg.PromptMinLength})
	s.Runner = jobs.NewRunner(s.Store, s.Generators, s.Publisher, logger)
	return s, nil
}

// NewPool builds the worker pool for the queue and lets the manager cancel
// the jobs it runs.
func (s *Services) NewPool(logger infra.Logger) *jobs.Pool {
	pool := jobs.NewPool(s.Queue, s.Runner, s.Config.WorkerConcurrency, logger)
	s.Manager.SetCanceler(pool)
	return pool
}

// Close releases resources in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
