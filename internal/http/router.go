package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"thumbforge/internal/http/handlers"
	"thumbforge/internal/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(nil))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(app.Cfg.JWTSecret))

			r.Get("/me", app.Me)

			r.Route("/thumbnails", func(r chi.Router) {
				r.With(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute)).
					Post("/", app.ThumbnailsGenerate)
				r.With(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute)).
					Post("/{job_id}/refine", app.ThumbnailsRefine)
				r.Get("/", app.ThumbnailsList)
				r.Get("/{job_id}/status", app.ThumbnailStatus)
			})
		})

		// Scheduled trigger; not user-facing, so guarded by the internal
		// token instead of user auth.
		r.With(middleware.RequireInternalToken(app.Cfg.WorkerRunToken)).
			Post("/worker/run", app.WorkerRun)
	})

	return r
}
