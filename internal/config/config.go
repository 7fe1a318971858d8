// Package config loads daemon settings from flags, environment variables
// and a TOML file, in that order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/metrics"
	"codeberg.org/mutker/thermotrack/internal/sensor"
	"codeberg.org/mutker/thermotrack/internal/tracker"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "/etc/thermotrack.toml"
	DefaultEnvPrefix  = "THERMOTRACK"
	DefaultInterval   = 10 * time.Second
	DefaultListen     = ":9901"
	DefaultLogLevel   = "info"
	DefaultSensor     = string(sensor.KindOneWire)
	DefaultScale      = string(sensor.Fahrenheit)
	DefaultMode       = ModeTracker
)

// Sampling modes. The tracker mode averages ReadsPerSample back-to-back
// reads every Interval; the smooth mode spreads them evenly across it.
const (
	ModeTracker = "tracker"
	ModeSmooth  = "smooth"
)

// HistoryConfig is one [[history]] table. A missing capacity means the
// history is unbounded.
type HistoryConfig struct {
	Name     string        `mapstructure:"name"`
	Capacity *int          `mapstructure:"capacity"`
	Period   time.Duration `mapstructure:"period"`
}

type Config struct {
	Mode           string          `mapstructure:"mode"`
	Interval       time.Duration   `mapstructure:"interval"`
	Listen         string          `mapstructure:"listen"`
	Sensor         string          `mapstructure:"sensor"`
	SensorID       string          `mapstructure:"sensor_id"`
	DevicesDir     string          `mapstructure:"devices_dir"`
	Scale          string          `mapstructure:"scale"`
	ReadsPerSample int             `mapstructure:"reads_per_sample"`
	LogLevel       string          `mapstructure:"log_level"`
	Debug          bool            `mapstructure:"debug"`
	Verbose        bool            `mapstructure:"verbose"`
	Metrics        bool            `mapstructure:"metrics"`
	PIDFile        string          `mapstructure:"pid_file"`
	Histories      []HistoryConfig `mapstructure:"history"`

	// ConfigFile is the file that was read, empty when none was.
	ConfigFile string `mapstructure:"-"`
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("thermotrack", pflag.ContinueOnError)

	fs.String("config", "", "Path to TOML configuration file")
	fs.String("mode", DefaultMode, "Sampling mode: tracker or smooth")
	fs.Duration("interval", DefaultInterval, "Minimum time between samples")
	fs.String("listen", DefaultListen, "Query server listen address")
	fs.String("sensor", DefaultSensor, "Sensor backend: w1 or nvml")
	fs.String("sensor-id", "", "Sensor device ID (w1 device name, GPU index or UUID); empty picks the first")
	fs.String("devices-dir", sensor.DefaultDevicesDir, "One-wire devices directory")
	fs.String("scale", DefaultScale, "Temperature scale: C or F")
	fs.Int("reads-per-sample", tracker.DefaultReadsPerSample, "Sensor reads averaged into one sample")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	fs.String("pid-file", "", "PID file path")

	return fs
}

// Load parses args (without the program name) and merges them with the
// environment and the configuration file.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		defaultPath: DefaultConfigFile,
		envPrefix:   DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(ErrBindFlags, err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, errFactory.Wrap(ErrBindFlags, bindErr)
	}

	path, explicit := configPath(fs, o)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, errFactory.Wrap(ErrReadConfig, err)
			}
			path = ""
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(ErrReadConfig, err)
	}
	cfg.ConfigFile = path

	if len(cfg.Histories) == 0 {
		cfg.Histories = DefaultHistories()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configPath picks the file to read: --config, then WithConfigFile, then
// <PREFIX>_CONFIG, then the default file.
func configPath(fs *pflag.FlagSet, o options) (string, bool) {
	if path, _ := fs.GetString("config"); path != "" {
		return path, true
	}
	if o.configPath != "" {
		return o.configPath, true
	}
	if path := os.Getenv(o.envPrefix + "_CONFIG"); path != "" {
		return path, true
	}
	return o.defaultPath, false
}

// DefaultHistories returns the built-in history layout as a new slice.
func DefaultHistories() []HistoryConfig {
	specs := tracker.DefaultHistories()
	out := make([]HistoryConfig, len(specs))
	for i, spec := range specs {
		out[i] = HistoryConfig{Name: spec.Name, Capacity: spec.Capacity, Period: spec.Period}
	}
	return out
}

// Validate checks every field, returning the first problem found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	invalid := func(code errors.ErrorCode, data any) error {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(code, data))
	}

	switch {
	case c.Mode != ModeTracker && c.Mode != ModeSmooth:
		return invalid(ErrInvalidMode, c.Mode)
	case c.Interval <= 0:
		return invalid(ErrInvalidInterval, c.Interval)
	case strings.TrimSpace(c.Listen) == "":
		return invalid(ErrInvalidListen, c.Listen)
	case !sensor.Kind(c.Sensor).IsValid():
		return invalid(ErrInvalidSensor, c.Sensor)
	case c.ReadsPerSample < 1:
		return invalid(ErrInvalidReads, c.ReadsPerSample)
	}

	if _, err := sensor.ParseScale(c.Scale); err != nil {
		return invalid(ErrInvalidScale, c.Scale)
	}

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidLogLevel, c.LogLevel))
	}

	for _, h := range c.Histories {
		if h.Period <= 0 {
			return invalid(ErrInvalidHistory, h)
		}
		if h.Capacity != nil && *h.Capacity <= 0 {
			return invalid(ErrInvalidHistory, h)
		}
	}

	return c.TrackerConfig().Validate()
}

// EffectiveLogLevel applies --debug and --verbose on top of LogLevel.
func (c *Config) EffectiveLogLevel() string {
	level := strings.ToLower(c.LogLevel)
	switch {
	case c.Debug:
		return string(LogLevelDebug)
	case c.Verbose && level != string(LogLevelDebug):
		return string(LogLevelInfo)
	default:
		return level
	}
}

func (c *Config) TrackerConfig() tracker.Config {
	specs := make([]tracker.HistorySpec, len(c.Histories))
	for i, h := range c.Histories {
		specs[i] = tracker.HistorySpec{Name: h.Name, Capacity: h.Capacity, Period: h.Period}
	}

	return tracker.Config{
		MinPeriod:      c.Interval,
		ReadsPerSample: c.ReadsPerSample,
		Histories:      specs,
	}
}

// SensorConfig assumes c has been validated.
func (c *Config) SensorConfig() sensor.Config {
	scale, _ := sensor.ParseScale(c.Scale)

	return sensor.Config{
		Kind:       sensor.Kind(c.Sensor),
		DevicesDir: c.DevicesDir,
		ID:         c.SensorID,
		Scale:      scale,
	}
}

func (c *Config) MetricsConfig() metrics.Config {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = c.Metrics
	return cfg
}
