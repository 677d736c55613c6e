package models

import "time"

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents an account within the VideoHub platform. The password hash
// never leaves the process in JSON form.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Embed dimension defaults applied when a video is created without them.
const (
	DefaultEmbedWidth  = "100%"
	DefaultEmbedHeight = "400px"
)

// Video is a catalog entry pointing at an embeddable source.
type Video struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	URL            string     `json:"url"`
	EmbedURL       string     `json:"embed_url"`
	EmbedCode      string     `json:"embed_code"`
	EmbedWidth     string     `json:"embed_width"`
	EmbedHeight    string     `json:"embed_height"`
	Thumbnail      string     `json:"thumbnail"`
	Duration       int        `json:"duration"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	IsActive       bool       `json:"is_active"`
	ViewsCount     int64      `json:"views_count"`
	CreatedBy      string     `json:"created_by"`
	CreatedByEmail string     `json:"created_by_email,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// VideoPatch lists the fields of a video to overwrite. Nil fields keep their
// stored value.
type VideoPatch struct {
	Title       *string
	Description *string
	URL         *string
	EmbedCode   *string
	EmbedWidth  *string
	EmbedHeight *string
	Thumbnail   *string
	Duration    *int
	ExpiryDate  *time.Time
	IsActive    *bool
}

// VideoView records a single playback reported by a client.
type VideoView struct {
	ID            string
	VideoID       string
	IPAddress     string
	UserAgent     string
	WatchDuration int
	ViewedAt      time.Time
}
