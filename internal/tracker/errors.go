package tracker

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig     = errors.ErrInvalidConfig
	ErrMissingReader     = errors.ErrorCode("tracker_missing_reader")
	ErrInvalidMinPeriod  = errors.ErrorCode("tracker_invalid_min_period")
	ErrInvalidReadCount  = errors.ErrorCode("tracker_invalid_reads_per_sample")
	ErrInvalidName       = errors.ErrorCode("tracker_invalid_history_name")
	ErrReservedName      = errors.ErrorCode("tracker_reserved_history_name")
	ErrDuplicateName     = errors.ErrorCode("tracker_duplicate_history_name")
	ErrInvalidHistorySet = errors.ErrorCode("tracker_invalid_history")

	// Sampling Errors
	ErrReadFailed = errors.ErrSensorRead
)
