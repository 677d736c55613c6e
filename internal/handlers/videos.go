package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/storage"
	"github.com/videohub/backend/internal/videos"
)

// VideoHandler implements the catalog endpoints under /api/videos.
type VideoHandler struct {
	videos     VideoCatalog
	thumbnails ThumbnailStore
	validate   *validator.Validate
	attribute  bool
	debug      bool
}

// VideoHandlerOptions tune a VideoHandler.
type VideoHandlerOptions struct {
	// AttributeToCaller credits new videos to the authenticated user stored
	// on the request context instead of the first admin.
	AttributeToCaller bool
	Debug             bool
}

// NewVideoHandler wires a VideoHandler. thumbnails may be nil, in which case
// uploads are answered with 503.
func NewVideoHandler(catalog VideoCatalog, thumbnails ThumbnailStore, opts VideoHandlerOptions) *VideoHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &VideoHandler{
		videos:     catalog,
		thumbnails: thumbnails,
		validate:   validate,
		attribute:  opts.AttributeToCaller,
		debug:      opts.Debug,
	}
}

type createVideoRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	URL         string    `json:"url" validate:"required"`
	EmbedCode   string    `json:"embed_code"`
	EmbedWidth  string    `json:"embed_width" validate:"max=32"`
	EmbedHeight string    `json:"embed_height" validate:"max=32"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    int       `json:"duration" validate:"gte=0"`
	ExpiryDate  *flexTime `json:"expiry_date"`
	IsActive    *bool     `json:"is_active"`
}

type updateVideoRequest struct {
	Title       *string   `json:"title" validate:"omitnil,min=1"`
	Description *string   `json:"description"`
	URL         *string   `json:"url" validate:"omitnil,min=1"`
	EmbedCode   *string   `json:"embed_code"`
	EmbedWidth  *string   `json:"embed_width" validate:"omitnil,max=32"`
	EmbedHeight *string   `json:"embed_height" validate:"omitnil,max=32"`
	Thumbnail   *string   `json:"thumbnail"`
	Duration    *int      `json:"duration" validate:"omitnil,gte=0"`
	ExpiryDate  *flexTime `json:"expiry_date"`
	IsActive    *bool     `json:"is_active"`
}

type viewRequest struct {
	WatchDuration int `json:"watchDuration"`
}

type videoListResponse struct {
	Success bool           `json:"success"`
	Videos  []models.Video `json:"videos"`
}

type videoResponse struct {
	Success bool         `json:"success"`
	Video   models.Video `json:"video"`
}

type videoDeletedResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Video   models.Video `json:"video"`
}

// List handles GET /api/videos.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.videos.List(ctx)
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}
	if list == nil {
		list = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Success: true, Videos: list})
}

// Get handles GET /api/videos/{id}.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.videos.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Success: true, Video: video})
}

// Create handles POST /api/videos.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var creator *models.User
	if h.attribute {
		if user, ok := auth.UserFromContext(ctx); ok {
			creator = &user
		}
	}

	video, err := h.videos.Create(ctx, videos.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		EmbedCode:   req.EmbedCode,
		EmbedWidth:  req.EmbedWidth,
		EmbedHeight: req.EmbedHeight,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		ExpiryDate:  req.ExpiryDate.value(),
		IsActive:    req.IsActive,
	}, creator)
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, videoResponse{Success: true, Video: video})
}

// Update handles PUT /api/videos/{id}. Omitted and null fields keep their
// stored values.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid video update payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	video, err := h.videos.Update(ctx, chi.URLParam(r, "id"), models.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		EmbedCode:   req.EmbedCode,
		EmbedWidth:  req.EmbedWidth,
		EmbedHeight: req.EmbedHeight,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		ExpiryDate:  req.ExpiryDate.value(),
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Success: true, Video: video})
}

// Delete handles DELETE /api/videos/{id}.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.videos.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoDeletedResponse{Success: true, Message: "video deleted", Video: video})
}

// RecordView handles POST /api/videos/{id}/view. The body is optional.
func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logging.FromContext(ctx).Warn("invalid view payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.videos.RecordView(ctx, videos.ViewInput{
		VideoID:       chi.URLParam(r, "id"),
		IPAddress:     clientIP(r),
		UserAgent:     r.UserAgent(),
		WatchDuration: req.WatchDuration,
	})
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, messageResponse{Success: true, Message: "view recorded"})
}

// UploadThumbnail handles POST /api/videos/{id}/thumbnail with a multipart
// "thumbnail" file.
func (h *VideoHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := chi.URLParam(r, "id")

	if h.thumbnails == nil {
		respondMessage(ctx, w, http.StatusServiceUnavailable, "thumbnail storage not configured")
		return
	}
	if err := h.videos.Exists(ctx, id); err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	if err := r.ParseMultipartForm(storage.MaxThumbnailBytes); err != nil {
		logger.Warn("invalid thumbnail upload", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMessage(ctx, w, http.StatusBadRequest, "thumbnail exceeds 10 MiB")
			return
		}
		respondMessage(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, "thumbnail file is required")
		return
	}
	defer file.Close()

	if _, ok := storage.ThumbnailContentType(header.Filename); !ok {
		respondMessage(ctx, w, http.StatusBadRequest, "unsupported thumbnail type")
		return
	}

	url, err := h.thumbnails.SaveThumbnail(ctx, id, header.Filename, file)
	if err != nil {
		logger.Error("thumbnail upload failed", "videoId", id, "error", err)
		respondMessage(ctx, w, http.StatusServiceUnavailable, "thumbnail storage unavailable")
		return
	}

	video, err := h.videos.SetThumbnail(ctx, id, url)
	if err != nil {
		respondError(ctx, w, err, h.debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Success: true, Video: video})
}

// validationMessage renders the first failed constraint. Missing title or
// url keeps the catalog's wording.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request body"
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" && (fe.Field() == "title" || fe.Field() == "url") {
			return "title and url are required"
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// flexTime accepts RFC 3339 timestamps as well as the date and
// datetime-local forms sent by browser inputs. An empty string means unset.
type flexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expiry_date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised expiry_date %q", raw)
}

func (t *flexTime) value() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
