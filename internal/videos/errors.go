package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrEmptyMetadata indicates the source page exposed none of the fields we use.
	ErrEmptyMetadata = errors.New("video metadata empty")
)
