package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store and queue backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"

	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	StoreBackend    string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseTable   string
	GeoIPDBPath     string
	JWTSecret       string
	NATSURL         string
	NATSPrefix      string
	PromptMinLength int

	RunwayAPIKey  string
	RunwayBaseURL string
	RunwayModel   string
	RunwayVersion string
	DemoVideoURL  string

	PollMaxAttempts int
	PollFloor       time.Duration
	PollStep        time.Duration
	PollCap         time.Duration
	PollRetryDelay  time.Duration

	QueueBackend      string
	QueueCapacity     int
	WorkerConcurrency int
	RedisAddr         string
	RedisUsername     string
	RedisPassword     string
	RedisUseTLS       bool
	RedisQueueKey     string

	Retention     time.Duration
	SweepInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "10000"),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseKey:     getEnv("SUPABASE_SERVICE_KEY", os.Getenv("SUPABASE_ANON_KEY")),
		SupabaseTable:   getEnv("SUPABASE_TABLE", "videos"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		NATSURL:         os.Getenv("NATS_URL"),
		NATSPrefix:      getEnv("NATS_SUBJECT_PREFIX", "videos"),
		PromptMinLength: getEnvInt("PROMPT_MIN_LENGTH", 3),

		RunwayAPIKey:  strings.TrimSpace(os.Getenv("RUNWAY_API_KEY")),
		RunwayBaseURL: getEnv("RUNWAY_BASE_URL", "https://api.dev.runwayml.com/v1"),
		RunwayModel:   getEnv("RUNWAY_MODEL", "gen4_turbo"),
		RunwayVersion: getEnv("RUNWAY_VERSION", "2024-11-06"),
		DemoVideoURL:  getEnv("DEMO_VIDEO_URL", "https://cdn.coverr.co/videos/coverr-aerial-view-of-a-road-in-the-forest-1573/1573-preview.mp4"),

		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 60),
		PollFloor:       getEnvSeconds("POLL_FLOOR_SECONDS", 3),
		PollStep:        getEnvSeconds("POLL_STEP_SECONDS", 1),
		PollCap:         getEnvSeconds("POLL_CAP_SECONDS", 15),
		PollRetryDelay:  getEnvSeconds("POLL_RETRY_SECONDS", 2),

		QueueBackend:      strings.ToLower(getEnv("QUEUE_BACKEND", QueueMemory)),
		QueueCapacity:     getEnvInt("QUEUE_CAPACITY", 100),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisUsername:     os.Getenv("REDIS_USERNAME"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisUseTLS:       getEnvBool("REDIS_USE_TLS", false),
		RedisQueueKey:     getEnv("REDIS_QUEUE_KEY", "jobs:video"),

		Retention:     time.Hour * time.Duration(getEnvInt("RETENTION_HOURS", 24)),
		SweepInterval: time.Minute * time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 60)),

		HTTPReadTimeout:  getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 15),
		HTTPWriteTimeout: getEnvSeconds("HTTP_WRITE_TIMEOUT_SECONDS", 30),
		HTTPIdleTimeout:  getEnvSeconds("HTTP_IDLE_TIMEOUT_SECONDS", 60),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY (or SUPABASE_ANON_KEY) are required for the supabase store")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.QueueBackend {
	case QueueMemory, QueueRedis:
	default:
		return nil, fmt.Errorf("unsupported QUEUE_BACKEND %q", cfg.QueueBackend)
	}

	if cfg.QueueCapacity <= 0 {
		return nil, fmt.Errorf("QUEUE_CAPACITY must be positive")
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

// RunwayConfigured reports whether a usable Runway key is present. Runway
// keys always carry the "key_" prefix; anything else puts the service in demo mode.
func (c *Config) RunwayConfigured() bool {
	return strings.HasPrefix(c.RunwayAPIKey, "key_")
}

// SupabaseConfigured reports whether hosted persistence credentials are present.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// Mode returns "production" when real generation is available, "demo" otherwise.
func (c *Config) Mode() string {
	if c.RunwayConfigured() {
		return "production"
	}
	return "demo"
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Second * time.Duration(getEnvInt(key, fallback))
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
