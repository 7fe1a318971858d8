package sampler_test

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type fakeReader struct {
	mu     sync.Mutex
	values []float64
	errs   map[int]error
	delay  time.Duration
	onRead func()
	calls  int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (r *fakeReader) ReadTemperature() (float64, error) {
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		seen := r.maxInFlight.Load()
		if cur <= seen || r.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.onRead != nil {
		r.onRead()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.calls
	r.calls++

	if err, ok := r.errs[i]; ok {
		return 0, err
	}
	if len(r.values) == 0 {
		return 0, nil
	}
	if i >= len(r.values) {
		return r.values[len(r.values)-1], nil
	}
	return r.values[i], nil
}

func (r *fakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeCollector struct {
	reads      atomic.Int32
	readErrors atomic.Int32
}

var _ metrics.Collector = (*fakeCollector)(nil)

func (c *fakeCollector) ObserveRead(_ time.Duration, err error) {
	if err != nil {
		c.readErrors.Add(1)
		return
	}
	c.reads.Add(1)
}

func (*fakeCollector) ObserveSample(float64)      {}
func (*fakeCollector) ObserveAdmission(string)    {}
func (*fakeCollector) ObserveRequest(string, int) {}

func (*fakeCollector) Gatherer() prometheus.Gatherer { return prometheus.NewRegistry() }
func (*fakeCollector) Enabled() bool                 { return true }

// syncBuffer guards a bytes.Buffer written from the sampling goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type bufferLogger struct {
	zl zerolog.Logger
}

var _ logger.Logger = bufferLogger{}

func newBufferLogger(w *syncBuffer) bufferLogger {
	return bufferLogger{zl: zerolog.New(w).Level(zerolog.DebugLevel)}
}

func (l bufferLogger) Debug() *logger.LogEvent { return &logger.LogEvent{Event: l.zl.Debug()} }
func (l bufferLogger) Info() *logger.LogEvent  { return &logger.LogEvent{Event: l.zl.Info()} }
func (l bufferLogger) Warn() *logger.LogEvent  { return &logger.LogEvent{Event: l.zl.Warn()} }
func (l bufferLogger) Error() *logger.LogEvent { return &logger.LogEvent{Event: l.zl.Error()} }

func (l bufferLogger) ErrorWithCode(err errors.Error) *logger.LogEvent {
	return &logger.LogEvent{Event: l.zl.Error().Str("code", string(err.Code())).Err(err)}
}
