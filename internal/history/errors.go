package history

import "codeberg.org/mutker/thermotrack/internal/errors"

const (
	ErrInvalidPeriod   = errors.ErrInvalidConfig
	ErrInvalidCapacity = errors.ErrInvalidConfig
)
