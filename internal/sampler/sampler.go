// Package sampler publishes periodic sensor readings onto a channel.
package sampler

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/sensor"
)

// Sampler reads the sensor once per period and publishes each reading to
// its output channel. The first read happens one period after Run.
type Sampler struct {
	reader sensor.Reader
	period time.Duration
	out    chan<- history.Sample
	opts   options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(reader sensor.Reader, period time.Duration, out chan<- history.Sample, opts ...Option) (*Sampler, error) {
	errFactory := errors.New()

	switch {
	case reader == nil:
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.New(ErrMissingReader))
	case out == nil:
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.New(ErrMissingChannel))
	case period <= 0:
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidPeriod, period))
	}

	return &Sampler{
		reader: reader,
		period: period,
		out:    out,
		opts:   buildOptions(opts),
	}, nil
}

func (s *Sampler) Period() time.Duration {
	return s.period
}

// Run starts the sampling loop. It is a no-op while already running.
func (s *Sampler) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit. A read in progress
// completes first; a pending publish is abandoned. It is a no-op when the
// sampler is not running.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil
}

func (s *Sampler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done != nil
}

func (s *Sampler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		elapsed, ok := s.sample(ctx)
		if !ok {
			return
		}

		timer.Reset(max(s.period-elapsed, 0))
	}
}

// sample performs one read and publishes it. It returns the read duration
// and false when the loop was cancelled during the publish.
func (s *Sampler) sample(ctx context.Context) (time.Duration, bool) {
	start := s.opts.clock.Now()
	value, err := s.reader.ReadTemperature()
	elapsed := s.opts.clock.Since(start)
	s.opts.metrics.ObserveRead(elapsed, err)

	if err != nil {
		s.logReadError(err)
		return elapsed, true
	}

	sample := history.NewSampleAt(value, s.opts.clock.Now())
	select {
	case s.out <- sample:
	case <-ctx.Done():
		s.opts.log.Debug().
			Err(errors.New().WithData(ErrPublishAborted, sample.String())).
			Msg("Sampler stopped before sample was consumed")
		return elapsed, false
	}

	return elapsed, true
}

func (s *Sampler) logReadError(err error) {
	var coded errors.Error
	if errors.As(err, &coded) {
		s.opts.log.ErrorWithCode(coded).Msg("Sensor read failed, skipping sample")
		return
	}
	s.opts.log.Error().Err(err).Msg("Sensor read failed, skipping sample")
}
