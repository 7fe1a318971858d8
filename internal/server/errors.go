package server

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	ErrInvalidConfig  = errors.ErrInvalidConfig
	ErrQueryNotFound  = errors.ErrQueryNotFound
	ErrNoData         = errors.ErrNoData
	ErrListenFailed   = errors.ErrInitFailed
	ErrShutdownFailed = errors.ErrShutdownFailed
)
