package metrics

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig    = errors.ErrInvalidConfig
	ErrInvalidNamespace = errors.ErrorCode("metrics_invalid_namespace")

	// Registration Errors
	ErrRegisterFailed = errors.ErrInitFailed
)
