// Package tracker owns the sensor and feeds every reading into a set of
// named, time-gated histories.
package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/thermotrack/internal/clock"
	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/metrics"
	"codeberg.org/mutker/thermotrack/internal/sensor"
)

// Snapshot is a point-in-time copy of one History.
type Snapshot struct {
	Name     string
	Period   time.Duration
	Capacity int
	Bounded  bool
	Origin   time.Time
	Samples  []history.Sample
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

func WithMetrics(m metrics.Collector) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithNotify sets a channel that receives every sample admitted by at least
// one history. Sends never block; a full channel drops the notification.
func WithNotify(ch chan<- history.Sample) Option {
	return func(t *Tracker) {
		t.notify = ch
	}
}

type Tracker struct {
	reader         sensor.Reader
	minPeriod      time.Duration
	readsPerSample int

	clock   clock.Clock
	log     logger.Logger
	metrics metrics.Collector
	notify  chan<- history.Sample

	// readMu serializes sensor access.
	readMu sync.Mutex

	mu        sync.RWMutex
	latest    history.Sample
	hasLatest bool
	histories map[string]*history.History
	order     []string

	// runMu is held across the join in Stop; running is read without it.
	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

func New(reader sensor.Reader, cfg Config, opts ...Option) (*Tracker, error) {
	errFactory := errors.New()

	if reader == nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, errFactory.New(ErrMissingReader))
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Tracker{
		reader:         reader,
		minPeriod:      cfg.MinPeriod,
		readsPerSample: cfg.ReadsPerSample,
		clock:          clock.RealClock{},
		log:            logger.Nop(),
		metrics:        metrics.Noop(),
		histories:      make(map[string]*history.History, len(cfg.Histories)),
		order:          make([]string, 0, len(cfg.Histories)),
	}
	for _, opt := range opts {
		opt(t)
	}

	origin := t.clock.Now()
	for _, spec := range cfg.Histories {
		hopts := []history.Option{history.WithOrigin(origin)}
		if spec.Capacity != nil {
			hopts = append(hopts, history.WithCapacity(*spec.Capacity))
		}

		h, err := history.New(spec.Period, hopts...)
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidHistorySet, err).WithMessage("invalid history " + spec.Name)
		}

		t.histories[spec.Name] = h
		t.order = append(t.order, spec.Name)
	}

	return t, nil
}

// GetSample takes ReadsPerSample sequential readings, records their mean
// and returns it. Nothing is recorded when any read fails.
func (t *Tracker) GetSample() (history.Sample, error) {
	s, _, err := t.sample()
	return s, err
}

func (t *Tracker) sample() (history.Sample, time.Duration, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	start := t.clock.Now()
	values := make([]float64, 0, t.readsPerSample)
	for i := 0; i < t.readsPerSample; i++ {
		readStart := t.clock.Now()
		v, err := t.reader.ReadTemperature()
		t.metrics.ObserveRead(t.clock.Since(readStart), err)
		if err != nil {
			return history.Sample{}, t.clock.Since(start), errors.New().Wrap(ErrReadFailed, err)
		}
		values = append(values, v)
	}

	s := history.NewSampleAt(history.Mean(values), t.clock.Now())
	elapsed := t.clock.Since(start)
	t.Record(s)

	return s, elapsed, nil
}

// Record sets s as the latest sample and offers it to every history. It
// returns true when at least one history admitted it.
func (t *Tracker) Record(s history.Sample) bool {
	t.mu.Lock()
	t.latest = s
	t.hasLatest = true

	var admitted []string
	for _, name := range t.order {
		if t.histories[name].Add(s) {
			admitted = append(admitted, name)
		}
	}
	t.mu.Unlock()

	t.metrics.ObserveSample(s.Value())
	for _, name := range admitted {
		t.metrics.ObserveAdmission(name)
	}

	if len(admitted) == 0 {
		return false
	}

	if t.notify != nil {
		select {
		case t.notify <- s:
		default:
			t.log.Debug().Str("sample", s.String()).Msg("Notification channel full, dropping sample")
		}
	}

	return true
}

// Start launches the sampling loop. It samples immediately, then every
// MinPeriod less the time the last sample took. It is a no-op while
// already running.
func (t *Tracker) Start() {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	if t.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running.Store(true)

	go t.loop(ctx, t.done)

	t.log.Info().
		Dur("min_period", t.minPeriod).
		Int("reads_per_sample", t.readsPerSample).
		Msg("Sampling started")
}

// Stop stops the sampling loop and waits for it to exit. It is a no-op
// when the loop is not running.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	if t.done == nil {
		return
	}

	t.running.Store(false)
	t.cancel()
	<-t.done

	t.cancel = nil
	t.done = nil

	t.log.Info().Msg("Sampling stopped")
}

// IsRunning reports whether the loop is running. It does not wait on a
// Stop in progress.
func (t *Tracker) IsRunning() bool {
	return t.running.Load()
}

func (t *Tracker) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		_, elapsed, err := t.sample()
		if err != nil {
			var coded errors.Error
			if errors.As(err, &coded) {
				t.log.ErrorWithCode(coded).Msg("Sampling failed, retrying next period")
			} else {
				t.log.Error().Err(err).Msg("Sampling failed, retrying next period")
			}
		}

		timer.Reset(max(t.minPeriod-elapsed, 0))
	}
}

// Latest returns the most recently recorded sample.
func (t *Tracker) Latest() (history.Sample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.latest, t.hasLatest
}

// History returns a snapshot of the named history.
func (t *Tracker) History(name string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.histories[name]
	if !ok {
		return Snapshot{}, false
	}

	capacity, bounded := h.Capacity()
	return Snapshot{
		Name:     name,
		Period:   h.Period(),
		Capacity: capacity,
		Bounded:  bounded,
		Origin:   h.Origin(),
		Samples:  h.Snapshot(),
	}, true
}

// HistoryNames returns the history names in registration order.
func (t *Tracker) HistoryNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.order...)
}
