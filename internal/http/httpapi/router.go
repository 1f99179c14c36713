package httpapi

import (
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/http/handlers"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/middleware"
)

// Options carries the HTTP-level settings of the router.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	// JWTSecret enables bearer auth on the /v1 job routes when set.
	JWTSecret string
	// StaticDir is served under /static when set; local slide images live there.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		if strings.TrimSpace(opts.JWTSecret) != "" {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
		}
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).
			Post("/v1/content/avatar-video", app.AvatarVideo)
		r.Get("/v1/jobs/{job_id}", app.JobStatus)
	})

	if dir := strings.TrimSpace(opts.StaticDir); dir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(dir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
