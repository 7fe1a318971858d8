package errors

// Common error codes
const (
	// System errors
	ErrInternal ErrorCode = "internal_error"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Sampling errors
	ErrSensorRead   ErrorCode = "sensor_read_failed"
	ErrSensorParse  ErrorCode = "sensor_parse_failed"
	ErrNoSensor     ErrorCode = "sensor_not_found"
	ErrNoData       ErrorCode = "no_data"
	ErrPublishAbort ErrorCode = "publish_aborted"

	// Query errors
	ErrQueryNotFound ErrorCode = "query_not_found"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidConfig:   "Invalid configuration",
	ErrReadConfig:      "Failed to read configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrSensorRead:      "Failed to read sensor",
	ErrSensorParse:     "Malformed sensor record",
	ErrNoSensor:        "No sensor device found",
	ErrNoData:          "No data",
	ErrPublishAbort:    "Sample publication aborted",
	ErrQueryNotFound:   "Unknown query name",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
