package tracker_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/thermotrack/internal/clock"
	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeReader struct {
	mu       sync.Mutex
	values   []float64
	failAt   int // 1-based call that fails
	failFrom int // every call from this one fails
	onRead   func()
	calls    int
}

func (r *fakeReader) ReadTemperature() (float64, error) {
	if r.onRead != nil {
		r.onRead()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.calls == r.failAt || (r.failFrom > 0 && r.calls >= r.failFrom) {
		return 0, errors.New().New(errors.ErrSensorRead)
	}
	if len(r.values) == 0 {
		return 0, nil
	}
	return r.values[(r.calls-1)%len(r.values)], nil
}

func (r *fakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

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

func (l bufferLogger) Debug() *logger.LogEvent { return &logger.LogEvent{Event: l.zl.Debug()} }
func (l bufferLogger) Info() *logger.LogEvent  { return &logger.LogEvent{Event: l.zl.Info()} }
func (l bufferLogger) Warn() *logger.LogEvent  { return &logger.LogEvent{Event: l.zl.Warn()} }
func (l bufferLogger) Error() *logger.LogEvent { return &logger.LogEvent{Event: l.zl.Error()} }

func (l bufferLogger) ErrorWithCode(err errors.Error) *logger.LogEvent {
	return &logger.LogEvent{Event: l.zl.Error().Str("code", string(err.Code())).Err(err)}
}

func secondsAndMinutes() []tracker.HistorySpec {
	return []tracker.HistorySpec{
		tracker.Bounded("seconds", 5, time.Second),
		tracker.Bounded("minutes", 5, time.Minute),
	}
}

func offsets(samples []history.Sample) []time.Duration {
	out := make([]time.Duration, len(samples))
	for i, s := range samples {
		out[i] = s.Time().Sub(base)
	}
	return out
}

func TestRecordSixtyFiveSeconds(t *testing.T) {
	tr, err := tracker.New(&fakeReader{}, tracker.Config{
		MinPeriod: time.Second,
		Histories: secondsAndMinutes(),
	})
	require.NoError(t, err)

	for i := 0; i <= 65; i++ {
		tr.Record(history.NewSampleAt(float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	seconds, ok := tr.History("seconds")
	require.True(t, ok)
	assert.Equal(t, []time.Duration{61 * time.Second, 62 * time.Second, 63 * time.Second, 64 * time.Second, 65 * time.Second},
		offsets(seconds.Samples))

	minutes, ok := tr.History("minutes")
	require.True(t, ok)
	assert.Equal(t, []time.Duration{0, 60 * time.Second}, offsets(minutes.Samples))

	latest, ok := tr.Latest()
	require.True(t, ok)
	assert.Equal(t, 65.0, latest.Value())
}

func TestSamplingLoopFeedsHistories(t *testing.T) {
	clk := clock.NewMockClock(base)
	values := make([]float64, 65)
	for i := range values {
		values[i] = float64(i)
	}
	reader := &fakeReader{
		values:   values,
		failFrom: 66,
		onRead:   func() { clk.Advance(time.Second) },
	}

	tr, err := tracker.New(reader, tracker.Config{
		MinPeriod:      time.Millisecond,
		ReadsPerSample: 1,
		Histories:      secondsAndMinutes(),
	}, tracker.WithClock(clk))
	require.NoError(t, err)

	tr.Start()
	require.Eventually(t, func() bool { return reader.Calls() >= 66 }, 2*time.Second, time.Millisecond)
	tr.Stop()

	seconds, _ := tr.History("seconds")
	assert.Equal(t, []time.Duration{61 * time.Second, 62 * time.Second, 63 * time.Second, 64 * time.Second, 65 * time.Second},
		offsets(seconds.Samples))

	minutes, _ := tr.History("minutes")
	assert.Equal(t, []time.Duration{time.Second, 61 * time.Second}, offsets(minutes.Samples))
}

func TestGetSampleAveragesReads(t *testing.T) {
	reader := &fakeReader{values: []float64{70, 71, 75}}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Second})
	require.NoError(t, err)

	s, err := tr.GetSample()
	require.NoError(t, err)
	assert.InDelta(t, 72.0, s.Value(), 1e-9)
	assert.Equal(t, 3, reader.Calls())

	latest, ok := tr.Latest()
	require.True(t, ok)
	assert.Equal(t, s, latest)
}

func TestGetSampleReadFailureRecordsNothing(t *testing.T) {
	reader := &fakeReader{values: []float64{70}, failAt: 2}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Second})
	require.NoError(t, err)

	_, err = tr.GetSample()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrSensorRead))

	_, ok := tr.Latest()
	assert.False(t, ok)

	snap, ok := tr.History("seconds")
	require.True(t, ok)
	assert.Empty(t, snap.Samples)
}

func TestNotifyOnlyOnAdmission(t *testing.T) {
	notify := make(chan history.Sample, 4)
	tr, err := tracker.New(&fakeReader{}, tracker.Config{
		MinPeriod: time.Second,
		Histories: []tracker.HistorySpec{tracker.Bounded("seconds", 5, time.Second)},
	}, tracker.WithNotify(notify))
	require.NoError(t, err)

	assert.True(t, tr.Record(history.NewSampleAt(1, base)))
	assert.False(t, tr.Record(history.NewSampleAt(2, base.Add(500*time.Millisecond))))
	assert.True(t, tr.Record(history.NewSampleAt(3, base.Add(time.Second))))

	require.Len(t, notify, 2)
	assert.Equal(t, 1.0, (<-notify).Value())
	assert.Equal(t, 3.0, (<-notify).Value())

	// Rejected samples still become the latest value.
	latest, _ := tr.Latest()
	assert.Equal(t, 3.0, latest.Value())
}

func TestNotifyNeverBlocks(t *testing.T) {
	notify := make(chan history.Sample)
	tr, err := tracker.New(&fakeReader{}, tracker.Config{MinPeriod: time.Second}, tracker.WithNotify(notify))
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- tr.Record(history.NewSampleAt(1, base)) }()

	select {
	case admitted := <-done:
		assert.True(t, admitted)
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full notification channel")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	reader := &fakeReader{values: []float64{70}}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Hour})
	require.NoError(t, err)

	tr.Stop()
	assert.False(t, tr.IsRunning())

	tr.Start()
	tr.Start()
	assert.True(t, tr.IsRunning())

	// The loop samples immediately, then waits out the hour.
	require.Eventually(t, func() bool { return reader.Calls() == 3 }, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		tr.Stop()
		tr.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the wait")
	}

	assert.False(t, tr.IsRunning())
	assert.Equal(t, 3, reader.Calls())
}

func TestIsRunningDoesNotWaitForStop(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	reader := &fakeReader{
		values: []float64{70},
		onRead: func() {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		},
	}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Hour, ReadsPerSample: 1})
	require.NoError(t, err)

	tr.Start()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("loop never read the sensor")
	}

	stopped := make(chan struct{})
	go func() {
		tr.Stop()
		close(stopped)
	}()

	// Stop is blocked on the in-flight read.
	require.Eventually(t, func() bool { return !tr.IsRunning() }, time.Second, time.Millisecond)

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the read finished")
	}
}

func TestSamplingPeriodIncludesReadTime(t *testing.T) {
	const (
		period = 100 * time.Millisecond
		delay  = 60 * time.Millisecond
		count  = 5
	)

	notify := make(chan history.Sample, count+1)
	reader := &fakeReader{values: []float64{70}, onRead: func() { time.Sleep(delay) }}
	tr, err := tracker.New(reader, tracker.Config{
		MinPeriod:      period,
		ReadsPerSample: 1,
		Histories:      []tracker.HistorySpec{tracker.Bounded("all", 2*count, time.Millisecond)},
	}, tracker.WithNotify(notify))
	require.NoError(t, err)

	tr.Start()
	samples := make([]history.Sample, count)
	for i := range samples {
		select {
		case samples[i] = <-notify:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for sample")
		}
	}
	tr.Stop()

	// Without compensation each gap would be period plus delay.
	spacing := samples[count-1].Time().Sub(samples[0].Time()) / (count - 1)
	assert.GreaterOrEqual(t, spacing, period-10*time.Millisecond)
	assert.Less(t, spacing, period+delay/2)
}

func TestLoopLogsSamplingFailure(t *testing.T) {
	var buf syncBuffer
	reader := &fakeReader{failFrom: 1}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Hour, ReadsPerSample: 1},
		tracker.WithLogger(bufferLogger{zl: zerolog.New(&buf)}))
	require.NoError(t, err)

	tr.Start()
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Sampling failed, retrying next period")
	}, time.Second, time.Millisecond)
	tr.Stop()

	assert.Contains(t, buf.String(), `"code":"`)
}

func TestLoopContinuesAfterReadError(t *testing.T) {
	reader := &fakeReader{values: []float64{70}, failAt: 1}
	tr, err := tracker.New(reader, tracker.Config{MinPeriod: time.Millisecond})
	require.NoError(t, err)

	tr.Start()
	defer tr.Stop()

	require.Eventually(t, func() bool {
		_, ok := tr.Latest()
		return ok
	}, 2*time.Second, time.Millisecond)
}

func TestHistoryNamesInRegistrationOrder(t *testing.T) {
	tr, err := tracker.New(&fakeReader{}, tracker.Config{MinPeriod: time.Second})
	require.NoError(t, err)

	assert.Equal(t, []string{"seconds", "minutes", "five_minutes", "half_hours"}, tr.HistoryNames())

	snap, ok := tr.History("half_hours")
	require.True(t, ok)
	assert.False(t, snap.Bounded)
	assert.Equal(t, 30*time.Minute, snap.Period)

	snap, ok = tr.History("five_minutes")
	require.True(t, ok)
	assert.True(t, snap.Bounded)
	assert.Equal(t, 1440, snap.Capacity)

	_, ok = tr.History("hours")
	assert.False(t, ok)
}

func TestDefaultHistoriesAreFresh(t *testing.T) {
	a := tracker.DefaultHistories()
	a[0].Name = "changed"
	*a[0].Capacity = 1

	b := tracker.DefaultHistories()
	assert.Equal(t, "seconds", b[0].Name)
	assert.Equal(t, 100, *b[0].Capacity)
}

func TestNewValidation(t *testing.T) {
	zero := 0

	tests := []struct {
		name string
		cfg  tracker.Config
		code errors.ErrorCode
	}{
		{"zero min period", tracker.Config{}, tracker.ErrInvalidMinPeriod},
		{"negative reads", tracker.Config{MinPeriod: time.Second, ReadsPerSample: -1}, tracker.ErrInvalidReadCount},
		{"reserved name", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			tracker.Bounded("latest", 5, time.Second),
		}}, tracker.ErrReservedName},
		{"empty name", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			tracker.Bounded("", 5, time.Second),
		}}, tracker.ErrInvalidName},
		{"slash in name", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			tracker.Bounded("a/b", 5, time.Second),
		}}, tracker.ErrInvalidName},
		{"duplicate name", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			tracker.Bounded("seconds", 5, time.Second),
			tracker.Unbounded("seconds", time.Minute),
		}}, tracker.ErrDuplicateName},
		{"zero capacity", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			{Name: "seconds", Capacity: &zero, Period: time.Second},
		}}, tracker.ErrInvalidHistorySet},
		{"zero period", tracker.Config{MinPeriod: time.Second, Histories: []tracker.HistorySpec{
			tracker.Unbounded("seconds", 0),
		}}, tracker.ErrInvalidHistorySet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracker.New(&fakeReader{}, tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
			assert.True(t, errors.HasCode(err, tt.code))
		})
	}

	_, err := tracker.New(nil, tracker.Config{MinPeriod: time.Second})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, tracker.ErrMissingReader))
}
