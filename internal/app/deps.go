package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/cache"
	"github.com/videohub/backend/internal/config"
	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/handlers"
	"github.com/videohub/backend/internal/middleware"
	"github.com/videohub/backend/internal/repositories"
	"github.com/videohub/backend/internal/storage"
	"github.com/videohub/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, cfg config.Config, pool db.Pool, cacheClient *cache.Client, logger *slog.Logger) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure token issuer: %w", err)
	}
	sessions := auth.NewSessionStore(cacheClient, cfg.Auth.SessionTTL)
	authService := auth.NewService(users, tokens, sessions, auth.Options{BcryptCost: cfg.Auth.BcryptCost})

	var metadata videos.Provider
	if cfg.Metadata.Enabled {
		ytdlp := videos.NewYTDLPProvider(cfg.Metadata.YTDLPPath, cfg.Metadata.YTDLPTimeout)
		metadata = videos.NewCachingProvider(ytdlp, cacheClient, cfg.Metadata.CacheTTL)
	}
	catalog := videos.NewCatalog(repositories.NewPostgresVideoRepository(pool), users, cacheClient, videos.Options{
		ListingTTL: cfg.Catalog.ListingCacheTTL,
		Metadata:   metadata,
	})

	var thumbnails handlers.ThumbnailStore
	if cfg.ObjectStore.Enabled() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure thumbnail storage: %w", err)
		}
		thumbnails = s3Storage
	}

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.Auth.RateLimit,
		Window:   cfg.Auth.RateWindow,
		Burst:    cfg.Auth.RateBurst,
		TTL:      cfg.Auth.RateVisitor,
	})

	return handlers.Dependencies{
		Logger:          logger,
		Auth:            authService,
		Videos:          catalog,
		Thumbnails:      thumbnails,
		Database:        pool,
		Cache:           cacheClient,
		Limiter:         limiter,
		Environment:     cfg.Server.Environment,
		Production:      cfg.IsProduction(),
		Debug:           cfg.IsDevelopment(),
		StaticDir:       cfg.Server.StaticDir,
		CORSOrigins:     cfg.Server.CORSOrigins,
		StrictVideoAuth: cfg.Server.StrictVideoAuth,
		TrustProxy:      cfg.Server.TrustProxy,
		StartedAt:       time.Now(),
	}, nil
}
