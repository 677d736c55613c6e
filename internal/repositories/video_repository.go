package repositories

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/models"
)

// VideoRepository exposes data access for catalog videos. None of the
// methods apply the visibility predicate except ListVisible.
type VideoRepository interface {
	ListVisible(ctx context.Context, now time.Time) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Create(ctx context.Context, video models.Video) error
	Update(ctx context.Context, id string, patch models.VideoPatch, updatedAt time.Time) (models.Video, error)
	Deactivate(ctx context.Context, id string, updatedAt time.Time) (models.Video, error)
	RecordView(ctx context.Context, view models.VideoView) error
}
