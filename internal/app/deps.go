package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/cache"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

const credentialLimiterTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup releases connections the dependencies opened.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func() error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewManager(cfg.Auth, users)

	objectStore, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
	}

	cleanup := func() error { return nil }
	var statsCache cache.StatsCache
	if strings.TrimSpace(cfg.Cache.RedisAddr) != "" {
		redisCache, err := cache.NewRedisStatsCache(ctx, cfg.Cache)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure stats cache: %w", err)
		}
		statsCache = redisCache
		cleanup = redisCache.Close
	} else {
		statsCache = cache.NewMemoryStatsCache(cfg.Cache.StatsTTL)
	}

	var limiter middleware.RateLimiter
	if cfg.RateLimit.AuthRequests > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow, cfg.RateLimit.AuthBurst, credentialLimiterTTL)
	}

	deps := handlers.Dependencies{
		Config:            cfg,
		Logger:            logger,
		Users:             users,
		Tokens:            tokens,
		Authenticator:     tokens,
		Videos:            repositories.NewPostgresVideoRepository(pool),
		Comments:          repositories.NewPostgresCommentRepository(pool),
		Tweets:            repositories.NewPostgresTweetRepository(pool),
		Likes:             repositories.NewPostgresLikeRepository(pool),
		Subscriptions:     repositories.NewPostgresSubscriptionRepository(pool),
		Stats:             cache.NewCachedDashboard(repositories.NewPostgresDashboardRepository(pool), statsCache),
		Media:             storage.NewGateway(objectStore, cfg.ObjectStore),
		DB:                pool,
		CredentialLimiter: limiter,
	}
	return deps, cleanup, nil
}
