package videos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videohub/backend/internal/apperrors"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// ListingKey is the cache key holding the visible-video snapshot.
const ListingKey = "videos:active"

// DefaultListingTTL bounds how long a listing snapshot may be served.
const DefaultListingTTL = 5 * time.Minute

const (
	msgVideoNotFound = "video not found"
	msgVideoExpired  = "video has expired"
)

// Store is the persistence contract the catalog relies on.
type Store interface {
	ListVisible(ctx context.Context, now time.Time) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Create(ctx context.Context, video models.Video) error
	Update(ctx context.Context, id string, patch models.VideoPatch, updatedAt time.Time) (models.Video, error)
	Deactivate(ctx context.Context, id string, updatedAt time.Time) (models.Video, error)
	RecordView(ctx context.Context, view models.VideoView) error
}

// AdminFinder locates the account new videos are attributed to when the
// caller is not known.
type AdminFinder interface {
	FirstAdmin(ctx context.Context) (models.User, error)
}

// Cache is the subset of the cache adapter used for the listing snapshot.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
}

// Options tune the catalog. Zero values select the defaults.
type Options struct {
	ListingTTL time.Duration
	Metadata   Provider
	Now        func() time.Time
}

// CreateInput carries the fields accepted when adding a video.
type CreateInput struct {
	Title       string
	Description string
	URL         string
	EmbedCode   string
	EmbedWidth  string
	EmbedHeight string
	Thumbnail   string
	Duration    int
	ExpiryDate  *time.Time
	IsActive    *bool
}

// ViewInput describes a playback reported by a client.
type ViewInput struct {
	VideoID       string
	IPAddress     string
	UserAgent     string
	WatchDuration int
}

// Catalog implements the video operations on top of the store and the
// listing cache. Every mutation drops the listing snapshot before returning.
type Catalog struct {
	store    Store
	admins   AdminFinder
	cache    Cache
	metadata Provider
	ttl      time.Duration
	now      func() time.Time
}

// NewCatalog wires a Catalog.
func NewCatalog(store Store, admins AdminFinder, cache Cache, opts Options) *Catalog {
	if store == nil || admins == nil || cache == nil {
		panic("videos: catalog dependencies must not be nil")
	}
	ttl := opts.ListingTTL
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Catalog{
		store:    store,
		admins:   admins,
		cache:    cache,
		metadata: opts.Metadata,
		ttl:      ttl,
		now:      now,
	}
}

// List returns the visible videos, newest first. A cached snapshot is
// re-filtered so entries that expired after it was taken are dropped.
func (c *Catalog) List(ctx context.Context) ([]models.Video, error) {
	now := c.now()

	var cached []models.Video
	if c.cache.Get(ctx, ListingKey, &cached) {
		return decorate(FilterVisible(cached, now)), nil
	}

	list, err := c.store.ListVisible(ctx, now)
	if err != nil {
		return nil, apperrors.Internal("failed to list videos", err)
	}
	list = FilterVisible(list, now)

	c.cache.Set(ctx, ListingKey, list, c.ttl)

	return decorate(list), nil
}

// Get returns a single visible video. Unknown, malformed and inactive ids
// are reported as not found; active but expired videos as gone.
func (c *Catalog) Get(ctx context.Context, id string) (models.Video, error) {
	video, err := c.find(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if !video.IsActive {
		return models.Video{}, apperrors.NotFound(msgVideoNotFound)
	}
	if Expired(video, c.now()) {
		return models.Video{}, apperrors.Gone(msgVideoExpired)
	}
	return decorateOne(video), nil
}

// Create stores a new video. When creator is nil the video is attributed to
// the earliest admin account.
func (c *Catalog) Create(ctx context.Context, input CreateInput, creator *models.User) (video models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "videos.create")
	defer func() { span.End(err) }()

	input.Title = strings.TrimSpace(input.Title)
	input.URL = strings.TrimSpace(input.URL)
	if input.Title == "" || input.URL == "" {
		return models.Video{}, apperrors.Validation("title and url are required")
	}
	if input.Duration < 0 {
		return models.Video{}, apperrors.Validation("duration must not be negative")
	}

	owner, err := c.resolveCreator(ctx, creator)
	if err != nil {
		return models.Video{}, err
	}

	c.enrich(ctx, &input)

	now := c.now().UTC()
	video = models.Video{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Description:    input.Description,
		URL:            input.URL,
		EmbedCode:      input.EmbedCode,
		EmbedWidth:     orDefault(input.EmbedWidth, models.DefaultEmbedWidth),
		EmbedHeight:    orDefault(input.EmbedHeight, models.DefaultEmbedHeight),
		Thumbnail:      input.Thumbnail,
		Duration:       input.Duration,
		ExpiryDate:     utcPtr(input.ExpiryDate),
		IsActive:       input.IsActive == nil || *input.IsActive,
		CreatedBy:      owner.ID,
		CreatedByEmail: owner.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.store.Create(ctx, video); err != nil {
		return models.Video{}, apperrors.Internal("failed to create video", err)
	}
	c.invalidate(ctx)

	logging.FromContext(ctx).Info("video created", "videoId", video.ID, "createdBy", owner.ID)
	return decorateOne(video), nil
}

// Update overwrites the fields set in patch. It applies to inactive and
// expired videos alike.
func (c *Catalog) Update(ctx context.Context, id string, patch models.VideoPatch) (video models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "videos.update")
	defer func() { span.End(err) }()

	if !validID(id) {
		return models.Video{}, apperrors.NotFound(msgVideoNotFound)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Video{}, apperrors.Validation("title must not be empty")
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return models.Video{}, apperrors.Validation("url must not be empty")
	}
	if patch.Duration != nil && *patch.Duration < 0 {
		return models.Video{}, apperrors.Validation("duration must not be negative")
	}
	patch.ExpiryDate = utcPtr(patch.ExpiryDate)

	video, err = c.store.Update(ctx, id, patch, c.now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperrors.NotFound(msgVideoNotFound)
		}
		return models.Video{}, apperrors.Internal("failed to update video", err)
	}
	c.invalidate(ctx)

	return decorateOne(video), nil
}

// SetThumbnail replaces the thumbnail URL of a video.
func (c *Catalog) SetThumbnail(ctx context.Context, id, thumbnailURL string) (models.Video, error) {
	return c.Update(ctx, id, models.VideoPatch{Thumbnail: &thumbnailURL})
}

// Exists reports whether id names a stored video, active or not.
func (c *Catalog) Exists(ctx context.Context, id string) error {
	_, err := c.find(ctx, id)
	return err
}

// Delete soft-deletes a video by clearing its active flag.
func (c *Catalog) Delete(ctx context.Context, id string) (video models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "videos.delete")
	defer func() { span.End(err) }()

	if !validID(id) {
		return models.Video{}, apperrors.NotFound(msgVideoNotFound)
	}

	video, err = c.store.Deactivate(ctx, id, c.now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperrors.NotFound(msgVideoNotFound)
		}
		return models.Video{}, apperrors.Internal("failed to delete video", err)
	}
	c.invalidate(ctx)

	return decorateOne(video), nil
}

// RecordView stores a playback and increments the view counter.
func (c *Catalog) RecordView(ctx context.Context, input ViewInput) error {
	if !validID(input.VideoID) {
		return apperrors.NotFound(msgVideoNotFound)
	}

	watched := input.WatchDuration
	if watched < 0 {
		watched = 0
	}

	view := models.VideoView{
		ID:            uuid.NewString(),
		VideoID:       input.VideoID,
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		WatchDuration: watched,
		ViewedAt:      c.now().UTC(),
	}
	if err := c.store.RecordView(ctx, view); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound(msgVideoNotFound)
		}
		return apperrors.Internal("failed to record view", err)
	}
	c.invalidate(ctx)

	return nil
}

func (c *Catalog) find(ctx context.Context, id string) (models.Video, error) {
	if !validID(id) {
		return models.Video{}, apperrors.NotFound(msgVideoNotFound)
	}
	video, err := c.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperrors.NotFound(msgVideoNotFound)
		}
		return models.Video{}, apperrors.Internal("failed to load video", err)
	}
	return video, nil
}

func (c *Catalog) resolveCreator(ctx context.Context, creator *models.User) (models.User, error) {
	if creator != nil && creator.ID != "" {
		return *creator, nil
	}
	admin, err := c.admins.FirstAdmin(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperrors.Internal("admin not found", nil)
		}
		return models.User{}, apperrors.Internal("failed to resolve video owner", err)
	}
	return admin, nil
}

// enrich fills blank descriptive fields from the metadata provider. Lookup
// failures leave the input untouched.
func (c *Catalog) enrich(ctx context.Context, input *CreateInput) {
	if c.metadata == nil {
		return
	}
	if input.Description != "" && input.Thumbnail != "" && input.Duration != 0 {
		return
	}

	meta, err := c.metadata.Lookup(ctx, input.URL)
	if err != nil {
		logging.FromContext(ctx).Warn("metadata lookup failed", "url", input.URL, "error", err)
		return
	}

	if input.Description == "" {
		input.Description = meta.Description
	}
	if input.Thumbnail == "" {
		input.Thumbnail = meta.Thumbnail
	}
	if input.Duration == 0 {
		input.Duration = meta.Duration
	}
}

func (c *Catalog) invalidate(ctx context.Context) {
	c.cache.Delete(ctx, ListingKey)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func decorate(list []models.Video) []models.Video {
	for i := range list {
		list[i].EmbedURL = EmbedURL(list[i].URL)
	}
	return list
}

func decorateOne(video models.Video) models.Video {
	video.EmbedURL = EmbedURL(video.URL)
	return video
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
