package sampler

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	ErrInvalidConfig  = errors.ErrInvalidConfig
	ErrInvalidPeriod  = errors.ErrorCode("sampler_invalid_period")
	ErrInvalidCount   = errors.ErrorCode("sampler_invalid_count")
	ErrMissingReader  = errors.ErrorCode("sampler_missing_reader")
	ErrMissingChannel = errors.ErrorCode("sampler_missing_channel")
	ErrPublishAborted = errors.ErrPublishAbort
)
