package config

// Option defines a configuration option that can be passed to Load
type Option func(*options)

// options holds internal configuration options
type options struct {
	configPath  string
	defaultPath string
	envPrefix   string
}

// WithConfigFile specifies an explicit configuration file path. It takes
// precedence over THERMOTRACK_CONFIG but not over --config.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithDefaultConfigFile replaces the file read when no path is given. A
// missing default file is not an error.
func WithDefaultConfigFile(path string) Option {
	return func(o *options) {
		o.defaultPath = path
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "THERMOTRACK"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, "warn":
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}
