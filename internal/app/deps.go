package app

import (
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/cache"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
)

const tokenIssuer = "clipstream"

// limiterEntryTTL controls how long idle rate limiter entries are retained.
const limiterEntryTTL = 5 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, media handlers.MediaRelay, profiles cache.Cache) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewTokenManager(users, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, tokenIssuer)
	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, limiterEntryTTL)

	return handlers.Dependencies{
		Users:         users,
		Tokens:        tokens,
		Media:         media,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Profiles:      profiles,
		ProfileTTL:    cfg.ProfileCacheTTL,
		TempDir:       cfg.TempUploadDir,
		Limiter:       limiter,

		Session: middleware.Session(tokens, users),
	}
}
