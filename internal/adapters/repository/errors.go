package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("run not found")
	ErrAlreadyWritten = errors.New("metrics already written for team")
	ErrSealed         = errors.New("metrics store is sealed")
	ErrMigrate        = errors.New("prediction store migration failed")
)
