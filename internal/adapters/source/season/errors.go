package season

import "errors"

// Sentinel error kinds for season summary loading.
var (
	ErrMissingColumn = errors.New("season csv missing column")
	ErrBadRow        = errors.New("season csv row invalid")
	ErrFetch         = errors.New("season fetch failed")
	ErrStatus        = errors.New("season fetch unexpected status")
)
