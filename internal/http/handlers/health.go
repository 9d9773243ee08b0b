package handlers

import (
	"net/http"
	"time"
)

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"runway":    configured(a.Config.RunwayConfigured()),
		"supabase":  configured(a.Config.SupabaseConfigured()),
		"store":     a.Config.StoreBackend,
		"queue":     a.Config.QueueBackend,
		"mode":      a.Config.Mode(),
		"timestamp": a.now().UTC().Format(time.RFC3339),
	}
	if depth, err := a.Jobs.QueueDepth(r.Context()); err == nil {
		body["queueDepth"] = depth
	} else {
		body["status"] = "degraded"
		a.Logger.Warn().Err(err).Msg("health: queue depth")
	}
	a.json(w, http.StatusOK, body)
}

var endpoints = []string{
	"GET /health",
	"POST /generate-video",
	"POST /api/generate/{provider}",
	"GET /video-status/{id}",
	"GET /api/videos/status/{id}/stream",
	"GET /videos",
	"DELETE /api/videos/{id}",
	"GET /test-runway",
}

func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"message":   "AI Video Studio Backend API",
		"status":    "running",
		"mode":      a.Config.Mode(),
		"endpoints": endpoints,
		"timestamp": a.now().UTC().Format(time.RFC3339),
	})
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusNotFound, map[string]any{
		"error":  "Route not found",
		"path":   r.URL.Path,
		"method": r.Method,
	})
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusMethodNotAllowed, map[string]any{
		"error":  "Method not allowed",
		"path":   r.URL.Path,
		"method": r.Method,
	})
}

// Recoverer turns panics into the JSON 500 envelope.
func (a *App) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.log(r).Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("panic recovered")
				a.error(w, http.StatusInternalServerError, "Internal server error", "unexpected panic")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
