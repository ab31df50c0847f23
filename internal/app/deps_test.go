package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cliphub/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{
		UploadDir:      filepath.Join(root, "uploads"),
		ThumbnailDir:   filepath.Join(root, "thumbnails"),
		MaxUploadBytes: 500 << 20,
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		FFmpegTimeout:  30 * time.Second,
	}

	logger := slog.Default()

	deps, accountService, err := buildDependencies(context.Background(), fakePool{}, cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Accounts == nil {
		t.Fatal("expected account service to be configured")
	}
	if accountService == nil {
		t.Fatal("expected account service to be returned for bootstrap")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Ingestor == nil {
		t.Fatal("expected video ingestor to be configured")
	}
	if deps.VideoAssets == nil || deps.ThumbAssets == nil {
		t.Fatal("expected asset stores to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.MaxUploadBytes != 500<<20 {
		t.Fatalf("unexpected upload limit %d", deps.MaxUploadBytes)
	}
}

func TestBuildDependenciesS3MirrorDisabledByDefault(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{
		UploadDir:     filepath.Join(root, "uploads"),
		ThumbnailDir:  filepath.Join(root, "thumbnails"),
		FFmpegTimeout: time.Second,
	}

	deps, _, err := buildDependencies(context.Background(), fakePool{}, cfg, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.Ingestor == nil {
		t.Fatal("expected ingestor to be configured without a mirror")
	}
}
