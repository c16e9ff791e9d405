package report

import "errors"

// Sentinel error kinds for report writing.
var (
	ErrUnknownFormat = errors.New("unknown report format")
	ErrEmptyBatch    = errors.New("batch has no successful rows")
)
