package sampler

import (
	"codeberg.org/mutker/thermotrack/internal/clock"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/metrics"
)

type options struct {
	clock   clock.Clock
	log     logger.Logger
	metrics metrics.Collector
}

// Option configures a Sampler or SmoothSampler.
type Option func(*options)

// WithClock sets the clock used to stamp samples and time reads.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func WithMetrics(m metrics.Collector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:   clock.RealClock{},
		log:     logger.Nop(),
		metrics: metrics.Noop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
