package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/infra"
	"aivideo/internal/jobs"
	"aivideo/internal/middleware"
	"aivideo/internal/providers/runway"
)

// AccountInfo reports Runway account details. *runway.Client implements it.
type AccountInfo interface {
	HasCredentials() bool
	Me(ctx context.Context) (*runway.Account, error)
}

type App struct {
	Jobs   *jobs.Manager
	Hub    *events.Hub
	Runway AccountInfo
	Config *infra.Config
	Logger zerolog.Logger

	// StreamRefresh is how often the status stream re-reads the store when
	// no event arrives, which covers workers running in another process.
	StreamRefresh time.Duration

	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewApp(manager *jobs.Manager, hub *events.Hub, account AccountInfo, cfg *infra.Config, logger zerolog.Logger) *App {
	return &App{
		Jobs:          manager,
		Hub:           hub,
		Runway:        account,
		Config:        cfg,
		Logger:        logger,
		StreamRefresh: 2 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// error writes the JSON error envelope. detail is dropped in production.
func (a *App) error(w http.ResponseWriter, code int, msg, detail string) {
	if a.Config != nil && a.Config.IsProduction() {
		detail = ""
	}
	a.json(w, code, errorBody{Error: msg, Message: detail})
}

// fail maps domain errors onto HTTP statuses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "Invalid prompt", err.Error())
	case errors.Is(err, domain.ErrInvalidSettings):
		a.error(w, http.StatusBadRequest, "Invalid settings", err.Error())
	case errors.Is(err, domain.ErrUnknownProvider):
		a.error(w, http.StatusBadRequest, "Unknown provider", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "Video not found", "")
	case errors.Is(err, domain.ErrQueueFull):
		a.error(w, http.StatusServiceUnavailable, "Queue full", "too many videos in progress, retry shortly")
	default:
		a.log(r).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

// log returns the request-scoped logger set by middleware.RequestID.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if middleware.RequestIDFromContext(r.Context()) == "" {
		return &a.Logger
	}
	return zerolog.Ctx(r.Context())
}
