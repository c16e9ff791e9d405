package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrUnknownFormat is wrapped together with ErrInvalidConfig.
	ErrUnknownFormat = errors.New("unknown output format")
)
