package videos

import (
	"time"

	"github.com/videohub/backend/internal/models"
)

// Visible reports whether v may be shown to clients at now: it must be
// active and either never expire or expire strictly after now.
func Visible(v models.Video, now time.Time) bool {
	if !v.IsActive {
		return false
	}
	return v.ExpiryDate == nil || v.ExpiryDate.After(now)
}

// Expired reports whether v carries an expiry that has already passed.
func Expired(v models.Video, now time.Time) bool {
	return v.ExpiryDate != nil && !v.ExpiryDate.After(now)
}

// FilterVisible returns the visible subset of list, preserving order.
func FilterVisible(list []models.Video, now time.Time) []models.Video {
	visible := make([]models.Video, 0, len(list))
	for _, v := range list {
		if Visible(v, now) {
			visible = append(visible, v)
		}
	}
	return visible
}
