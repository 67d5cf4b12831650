package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clipstudio/internal/http/handlers"
	"clipstudio/internal/middleware"
)

// NewRouter mounts the full API surface. Everything under /v1 except the
// health check and the dev token mint sits behind JWT auth.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.I18N("en", lookup),
	)

	r.Get("/v1/healthz", app.Health)
	if app.Cfg.AppEnv != "production" {
		r.Post("/v1/auth/token", app.IssueToken)
	}

	r.Group(func(r chi.Router) {
		// Auth first so the rate limiter keys on the user id.
		r.Use(
			middleware.AuthJWT(app.Cfg.JWTSecret),
			middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute),
		)

		r.Route("/v1/keys", func(r chi.Router) {
			r.Get("/", app.KeysList)
			r.Post("/", app.KeysCreate)
			r.Delete("/{id}", app.KeysDelete)
		})

		r.Route("/v1/wizard", func(r chi.Router) {
			r.Get("/", app.WizardResume)
			r.Post("/select/{stage}", app.WizardSelect)
			r.Post("/reset", app.WizardReset)
		})

		r.Route("/v1/uploads", func(r chi.Router) {
			r.Post("/", app.UploadsCreate)
			r.Get("/", app.UploadsList)
		})

		r.Route("/v1/videos", func(r chi.Router) {
			r.Get("/", app.VideosList)
			r.Post("/generate", app.VideosGenerate)
			r.Get("/current", app.VideosCurrent)
			r.Post("/cancel", app.VideosCancel)
			r.Post("/recover", app.VideosRecover)
			r.Post("/recover/confirm", app.VideosRecoverConfirm)
			r.Post("/{request_id}/publish", app.VideoPublish)
		})
	})

	return r
}
