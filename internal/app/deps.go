package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/views"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitEntryTTL = 5 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned releaser owns a worker pool and must be shut down
// when the server stops.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *storage.Releaser, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	edges := repositories.NewPostgresEngagementRepository(pool)
	history := repositories.NewPostgresHistoryRepository(pool)

	creds, err := buildCredentialStore(pool, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	sessions := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, users, creds)

	toggler := engagement.NewToggler(edges, users, videos, comments, tweets)

	stats := views.NewCachingEngagement(edges, cfg.StatsCacheTTL)
	aggregator := views.NewAggregator(users, videos, comments, tweets, playlists, stats, history)

	objects, err := storage.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
	}
	releaser := storage.NewReleaser(objects, storage.ReleaserConfig{
		QueueSize: cfg.ReleaserQueueSize,
		Workers:   cfg.ReleaserWorkers,
	}, logger)

	prober := media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, rateLimitWindow, cfg.RateLimitBurst, rateLimitEntryTTL)

	return handlers.Dependencies{
		Users:     users,
		Sessions:  sessions,
		Videos:    videos,
		Comments:  comments,
		Tweets:    tweets,
		Playlists: playlists,
		Toggler:   toggler,
		Edges:     edges,
		Views:     aggregator,
		History:   history,
		Media:     objects,
		Releaser:  releaser,
		Prober:    prober,
		Verifier:  sessions,
		Limiter:   limiter,
	}, releaser, nil
}

// buildCredentialStore selects the refresh credential backend.
func buildCredentialStore(pool db.Pool, cfg config.Config) (auth.CredentialStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return repositories.NewRedisCredentialStore(client), nil
	case config.SessionStorePostgres:
		return repositories.NewPostgresCredentialStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
