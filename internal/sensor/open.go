package sensor

import (
	"io"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

// ReadCloser is a Reader holding resources released by Close.
type ReadCloser interface {
	Reader
	io.Closer
}

// Open returns the Reader selected by cfg.
func Open(cfg Config) (ReadCloser, error) {
	scale := cfg.Scale
	if scale == "" {
		scale = Fahrenheit
	}

	switch cfg.Kind {
	case KindOneWire, "":
		d, err := OpenDS18B20(DirLocator{Dir: cfg.DevicesDir}, cfg.DevicesDir, cfg.ID, scale)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindNVML:
		g, err := OpenNVML(cfg.ID, scale)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, errors.New().WithData(ErrInvalidConfig, struct {
			Field string
			Value Kind
		}{
			Field: "sensor",
			Value: cfg.Kind,
		})
	}
}
