package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"aivideo/internal/http/handlers"
	"aivideo/internal/middleware"
)

// Options carries the request-level policies the router applies.
type Options struct {
	JWTSecret       string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(app.Logger), chimw.RealIP, chimw.CleanPath, middleware.Logger(app.Logger), app.Recoverer)
	r.Use(middleware.Country(opts.CountryLookup))

	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	requireToken := middleware.AuthJWT(opts.JWTSecret)

	r.Get("/", app.Index)
	r.Get("/health", app.Health)
	r.Get("/test-runway", app.TestRunway)

	// Legacy paths used by the original web client.
	r.With(limited).Post("/generate-video", app.Generate)
	r.Get("/video-status/{id}", app.Status)
	r.Get("/videos", app.List)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/generate", app.Generate)
			r.Post("/generate/{provider}", app.Generate)
		})
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", app.List)
			r.Get("/status/{id}", app.Status)
			r.Get("/status/{id}/stream", app.StatusStream)
			r.With(requireToken).Delete("/{id}", app.Delete)
		})
	})

	return r
}
