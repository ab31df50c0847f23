package handlers

import (
	"context"
	"io"

	"github.com/cliphub/backend/internal/models"
	"github.com/cliphub/backend/internal/videos"
)

// AccountService captures the account operations required by the auth handlers.
type AccountService interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

// SessionManager issues, resolves, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// UserStore captures the persistence operations required beyond the account service.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

// VideoStore captures persistence for video metadata records.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, search string) ([]models.Video, error)
	Delete(ctx context.Context, id string) error
}

// VideoIngestor runs the upload pipeline and removes its assets again.
type VideoIngestor interface {
	Ingest(ctx context.Context, file io.Reader, declaredFilename string) (videos.IngestResult, error)
	RemoveAssets(ctx context.Context, result videos.IngestResult)
}

// AssetResolver locates stored assets for serving.
type AssetResolver interface {
	Path(key string) string
	Exists(key string) bool
}
