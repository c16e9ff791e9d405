package gamelog

import "errors"

// Sentinel error kinds for game log loading.
var (
	ErrMissingColumn = errors.New("game log missing column")
	ErrBadRow        = errors.New("game log row invalid")
	ErrNoTable       = errors.New("game log html has no results table")
)
