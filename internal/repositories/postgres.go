package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	role := user.Role
	if role == "" {
		role = models.RoleMember
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, role, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Email, user.PasswordHash, role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "select user by email", `
        SELECT `+userColumns+`
        FROM users
        WHERE email = $1
    `, email)
}

// FindByID fetches a user by id. Malformed ids are reported as ErrNotFound.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "select user by id", `
        SELECT `+userColumns+`
        FROM users
        WHERE id = $1
    `, id)
}

// FirstAdmin returns the earliest created admin account.
func (r *PostgresUserRepository) FirstAdmin(ctx context.Context) (models.User, error) {
	return r.findOne(ctx, "select first admin", `
        SELECT `+userColumns+`
        FROM users
        WHERE role = 'admin'
        ORDER BY created_at ASC
        LIMIT 1
    `)
}

// Update overwrites the mutable fields of an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, role = $4, is_active = $5, updated_at = $6
        WHERE id = $1
    `, user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive, user.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return ErrConflict
		case codeInvalidText:
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, op, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var user models.User
	err = conn.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidText {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for catalog videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoSelect = `
        SELECT v.id, v.title, v.description, v.url, v.embed_code, v.embed_width, v.embed_height,
               v.thumbnail, v.duration, v.expiry_date, v.is_active, v.views_count,
               v.created_by, u.email, v.created_at, v.updated_at
        FROM videos v
        LEFT JOIN users u ON u.id = v.created_by
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var (
		video     models.Video
		expiry    *time.Time
		createdBy *string
		email     *string
	)
	err := row.Scan(
		&video.ID, &video.Title, &video.Description, &video.URL, &video.EmbedCode, &video.EmbedWidth, &video.EmbedHeight,
		&video.Thumbnail, &video.Duration, &expiry, &video.IsActive, &video.ViewsCount,
		&createdBy, &email, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		return models.Video{}, err
	}

	if expiry != nil {
		t := expiry.UTC()
		video.ExpiryDate = &t
	}
	if createdBy != nil {
		video.CreatedBy = *createdBy
	}
	if email != nil {
		video.CreatedByEmail = *email
	}
	return video, nil
}

// ListVisible returns active videos that have not expired at now, newest first.
func (r *PostgresVideoRepository) ListVisible(ctx context.Context, now time.Time) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, videoSelect+`
        WHERE v.is_active = TRUE
          AND (v.expiry_date IS NULL OR v.expiry_date > $1)
        ORDER BY v.created_at DESC
    `, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("query visible videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// FindByID loads a video regardless of its active flag or expiry.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findVideo(ctx, conn, id)
}

func findVideo(ctx context.Context, conn *pgxpool.Conn, id string) (models.Video, error) {
	video, err := scanVideo(conn.QueryRow(ctx, videoSelect+`WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidText {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var createdBy *string
	if video.CreatedBy != "" {
		createdBy = &video.CreatedBy
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, url, embed_code, embed_width, embed_height,
                            thumbnail, duration, expiry_date, is_active, views_count, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `, video.ID, video.Title, video.Description, video.URL, video.EmbedCode, video.EmbedWidth, video.EmbedHeight,
		video.Thumbnail, video.Duration, video.ExpiryDate, video.IsActive, video.ViewsCount, createdBy, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return ErrConflict
		case codeForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// Update overwrites the fields set in patch and returns the stored video.
// Fields left nil keep their current value.
func (r *PostgresVideoRepository) Update(ctx context.Context, id string, patch models.VideoPatch, updatedAt time.Time) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = COALESCE($2, title),
            description = COALESCE($3, description),
            url = COALESCE($4, url),
            embed_code = COALESCE($5, embed_code),
            embed_width = COALESCE($6, embed_width),
            embed_height = COALESCE($7, embed_height),
            thumbnail = COALESCE($8, thumbnail),
            duration = COALESCE($9, duration),
            expiry_date = COALESCE($10, expiry_date),
            is_active = COALESCE($11, is_active),
            updated_at = $12
        WHERE id = $1
    `, id, patch.Title, patch.Description, patch.URL, patch.EmbedCode, patch.EmbedWidth, patch.EmbedHeight,
		patch.Thumbnail, patch.Duration, patch.ExpiryDate, patch.IsActive, updatedAt)
	if err != nil {
		if pgErrorCode(err) == codeInvalidText {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}

	return findVideo(ctx, conn, id)
}

// Deactivate soft-deletes a video by clearing its active flag.
func (r *PostgresVideoRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET is_active = FALSE, updated_at = $2
        WHERE id = $1
    `, id, updatedAt)
	if err != nil {
		if pgErrorCode(err) == codeInvalidText {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("deactivate video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}

	return findVideo(ctx, conn, id)
}

// RecordView stores a playback row and bumps the video's view counter.
// Unknown videos are reported as ErrNotFound.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, view models.VideoView) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO video_views (id, video_id, ip_address, user_agent, watch_duration, viewed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, view.ID, view.VideoID, view.IPAddress, view.UserAgent, view.WatchDuration, view.ViewedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeForeignKeyViolation, codeInvalidText:
			return ErrNotFound
		}
		return fmt.Errorf("insert video view: %w", err)
	}

	if _, err := conn.Exec(ctx, `
        UPDATE videos
        SET views_count = views_count + 1
        WHERE id = $1
    `, view.VideoID); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
