package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cliphub/backend/internal/accounts"
	"github.com/cliphub/backend/internal/auth"
	"github.com/cliphub/backend/internal/config"
	"github.com/cliphub/backend/internal/db"
	"github.com/cliphub/backend/internal/handlers"
	"github.com/cliphub/backend/internal/middleware"
	"github.com/cliphub/backend/internal/repositories"
	"github.com/cliphub/backend/internal/storage"
	"github.com/cliphub/backend/internal/thumbs"
	"github.com/cliphub/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. It also returns the account service so the caller can run the
// superuser bootstrap against the same instance.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *accounts.Service, error) {
	videoStore, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("prepare upload directory: %w", err)
	}

	thumbStore, err := storage.NewFileStore(cfg.ThumbnailDir)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("prepare thumbnail directory: %w", err)
	}

	extractor := thumbs.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath, cfg.FFmpegTimeout)
	ingestor := videos.NewIngestor(videoStore, thumbStore, extractor, logger)

	if cfg.ObjectStore.Bucket != "" {
		mirror, err := storage.NewS3Mirror(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object store mirror: %w", err)
		}
		ingestor.Mirror = mirror
		logger.Info("asset mirroring enabled", "bucket", cfg.ObjectStore.Bucket)
	}

	users := repositories.NewPostgresUserRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)
	accountService := accounts.NewService(users)

	return handlers.Dependencies{
		Accounts:       accountService,
		Sessions:       auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Users:          users,
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Ingestor:       ingestor,
		VideoAssets:    videoStore,
		ThumbAssets:    thumbStore,
		AuthLimiter:    middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, accountService, nil
}
