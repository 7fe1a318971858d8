package config

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrInvalidConfig
	ErrReadConfig      = errors.ErrReadConfig
	ErrBindFlags       = errors.ErrBindFlags
	ErrInvalidLogLevel = errors.ErrInvalidLogLevel

	ErrInvalidMode     = errors.ErrorCode("config_invalid_mode")
	ErrInvalidInterval = errors.ErrorCode("config_invalid_interval")
	ErrInvalidListen   = errors.ErrorCode("config_invalid_listen")
	ErrInvalidSensor   = errors.ErrorCode("config_invalid_sensor")
	ErrInvalidScale    = errors.ErrorCode("config_invalid_scale")
	ErrInvalidReads    = errors.ErrorCode("config_invalid_reads_per_sample")
	ErrInvalidHistory  = errors.ErrorCode("config_invalid_history")
)
