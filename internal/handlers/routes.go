package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/videohub/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger     *slog.Logger
	Auth       AuthService
	Videos     VideoCatalog
	Thumbnails ThumbnailStore
	Database   Pinger
	Cache      Pinger
	Limiter    RateLimiter

	Environment string
	Production  bool
	Debug       bool
	StaticDir   string
	CORSOrigins []string
	// StrictVideoAuth verifies bearer tokens on video mutations, requires
	// the admin role and credits new videos to the caller.
	StrictVideoAuth bool
	// TrustProxy replaces the remote address with the client address
	// reported by X-Forwarded-For or X-Real-IP.
	TrustProxy      bool
	StartedAt       time.Time
}

// NewRouter assembles the HTTP surface of the service.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := AuthHandler{Auth: deps.Auth, Limiter: deps.Limiter, Debug: deps.Debug}
	videoHandler := NewVideoHandler(deps.Videos, deps.Thumbnails, VideoHandlerOptions{
		AttributeToCaller: deps.StrictVideoAuth,
		Debug:             deps.Debug,
	})
	health := HealthHandler{
		Database:    deps.Database,
		Cache:       deps.Cache,
		Environment: deps.Environment,
		Production:  deps.Production,
		StartedAt:   deps.StartedAt,
	}

	mutation := middleware.RequireBearer
	if deps.StrictVideoAuth {
		mutation = middleware.RequireAdmin(deps.Auth)
	}

	r := chi.NewRouter()
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(deps.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiNotFound)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/verify", authHandler.Verify)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Post("/{id}/view", videoHandler.RecordView)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireBearer)
				r.Get("/", videoHandler.List)
				r.Get("/{id}", videoHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(mutation)
				r.Post("/", videoHandler.Create)
				r.Put("/{id}", videoHandler.Update)
				r.Delete("/{id}", videoHandler.Delete)
				r.Post("/{id}/thumbnail", videoHandler.UploadThumbnail)
			})
		})

		r.Get("/health", health.Check)
		r.Get("/health/info", health.Info)
	})

	r.NotFound(SPAHandler{Dir: deps.StaticDir}.ServeHTTP)

	return r
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	respondMessage(r.Context(), w, http.StatusNotFound, "endpoint not found")
}
