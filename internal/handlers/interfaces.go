package handlers

import (
	"context"
	"io"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/videos"
)

// AuthService captures the account operations required by the auth handlers.
type AuthService interface {
	Register(ctx context.Context, email, password string) (auth.RegisterResult, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionToken string)
	VerifyToken(ctx context.Context, token string) (models.User, error)
}

// VideoCatalog captures the catalog operations required by the video handlers.
type VideoCatalog interface {
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	Create(ctx context.Context, input videos.CreateInput, creator *models.User) (models.Video, error)
	Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error)
	Delete(ctx context.Context, id string) (models.Video, error)
	RecordView(ctx context.Context, input videos.ViewInput) error
	SetThumbnail(ctx context.Context, id, thumbnailURL string) (models.Video, error)
	Exists(ctx context.Context, id string) error
}

// ThumbnailStore persists uploaded thumbnail images and returns their URL.
type ThumbnailStore interface {
	SaveThumbnail(ctx context.Context, videoID, filename string, r io.Reader) (string, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
