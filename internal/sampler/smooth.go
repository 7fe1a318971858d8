package sampler

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/sensor"
)

// SmoothSampler runs a Sampler at period/count and publishes the mean of
// every count consecutive readings, stamped with the last reading's time.
type SmoothSampler struct {
	reader sensor.Reader
	period time.Duration
	count  int
	out    chan<- history.Sample
	opts   []Option

	mu     sync.Mutex
	inner  *Sampler
	raw    chan history.Sample
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSmooth(reader sensor.Reader, period time.Duration, count int, out chan<- history.Sample, opts ...Option) (*SmoothSampler, error) {
	errFactory := errors.New()

	if count < 1 {
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidCount, count))
	}
	if period <= 0 || period/time.Duration(count) <= 0 {
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidPeriod, period))
	}
	// Validate the remaining arguments the same way the inner sampler will.
	if _, err := New(reader, period/time.Duration(count), out, opts...); err != nil {
		return nil, err
	}

	return &SmoothSampler{
		reader: reader,
		period: period,
		count:  count,
		out:    out,
		opts:   opts,
	}, nil
}

// Run starts the inner sampler and the averaging loop. Each run gets a
// fresh raw channel, so a stopped SmoothSampler can be run again.
func (s *SmoothSampler) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	raw := make(chan history.Sample)
	inner := &Sampler{
		reader: s.reader,
		period: s.period / time.Duration(s.count),
		out:    raw,
		opts:   buildOptions(s.opts),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.inner = inner
	s.raw = raw
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.average(ctx, raw, s.done)
	inner.Run()
}

// Stop stops the inner sampler, closes the raw channel to end the
// averaging loop and waits for it. Partially accumulated readings are
// discarded.
func (s *SmoothSampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}

	s.inner.Stop()
	s.cancel()
	close(s.raw)
	<-s.done

	s.inner = nil
	s.raw = nil
	s.cancel = nil
	s.done = nil
}

func (s *SmoothSampler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done != nil
}

func (s *SmoothSampler) average(ctx context.Context, raw <-chan history.Sample, done chan<- struct{}) {
	defer close(done)

	acc := newAccumulator(s.count)
	for sample := range raw {
		smoothed, ok := acc.add(sample)
		if !ok {
			continue
		}

		select {
		case s.out <- smoothed:
		case <-ctx.Done():
			// Drain until the raw channel is closed.
		}
	}
}

// accumulator averages fixed-size groups of samples.
type accumulator struct {
	count  int
	values []float64
}

func newAccumulator(count int) *accumulator {
	return &accumulator{count: count, values: make([]float64, 0, count)}
}

// add collects s and, once count samples are held, returns their mean
// stamped with s's time and resets.
func (a *accumulator) add(s history.Sample) (history.Sample, bool) {
	a.values = append(a.values, s.Value())
	if len(a.values) < a.count {
		return history.Sample{}, false
	}

	mean := history.Mean(a.values)
	a.values = a.values[:0]

	return history.NewSampleAt(mean, s.Time()), true
}
