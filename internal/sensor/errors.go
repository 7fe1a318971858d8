package sensor

import (
	"codeberg.org/mutker/thermotrack/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	ErrInvalidConfig   = errors.ErrInvalidConfig
	ErrReadFailed      = errors.ErrSensorRead
	ErrMalformedRecord = errors.ErrSensorParse
	ErrDeviceNotFound  = errors.ErrNoSensor

	ErrNVMLInitFailed     = errors.ErrorCode("sensor_nvml_init_failed")
	ErrNVMLShutdownFailed = errors.ErrorCode("sensor_nvml_shutdown_failed")
	ErrNVMLNotInitialized = errors.ErrorCode("sensor_nvml_not_initialized")
)

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}
