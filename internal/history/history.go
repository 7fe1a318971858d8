package history

import (
	"sync"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

// History is a time-gated, optionally bounded buffer of Samples. A sample is
// admitted only when at least Period has elapsed since the last admitted one.
// Bounded histories evict their oldest sample once full.
//
// Samples keep their absolute timestamps; Origin records when the history
// was created.
type History struct {
	period   time.Duration
	capacity int // 0 means unbounded
	origin   time.Time

	mu sync.RWMutex
	// buf is a ring once it reaches capacity; start indexes the oldest sample.
	buf   []Sample
	start int
}

// Option configures a History
type Option func(*options) error

type options struct {
	capacity int
	origin   time.Time
}

// WithCapacity bounds the history to n samples. n must be positive.
func WithCapacity(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.New().WithData(ErrInvalidCapacity, struct {
				Field    string
				Capacity int
			}{
				Field:    "capacity",
				Capacity: n,
			}).WithMessage("capacity must be a positive integer")
		}
		o.capacity = n
		return nil
	}
}

// WithOrigin overrides the creation time reported by Origin.
func WithOrigin(t time.Time) Option {
	return func(o *options) error {
		o.origin = t
		return nil
	}
}

// New creates a history admitting at most one sample per period.
func New(period time.Duration, opts ...Option) (*History, error) {
	if period <= 0 {
		return nil, errors.New().WithData(ErrInvalidPeriod, struct {
			Field  string
			Period time.Duration
		}{
			Field:  "period",
			Period: period,
		}).WithMessage("period must be positive")
	}

	o := options{origin: time.Now()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	h := &History{
		period:   period,
		capacity: o.capacity,
		origin:   o.origin,
	}
	if h.capacity > 0 {
		h.buf = make([]Sample, 0, min(h.capacity, 1024))
	}

	return h, nil
}

// Add admits s if the history is empty or s is at least one period newer
// than the last admitted sample. It reports whether s was admitted.
func (h *History) Add(s Sample) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.buf) > 0 && s.Time().Sub(h.last().Time()) < h.period {
		return false
	}

	if h.capacity == 0 || len(h.buf) < h.capacity {
		h.buf = append(h.buf, s)
		return true
	}

	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)

	return true
}

func (h *History) last() Sample {
	return h.buf[(h.start+len(h.buf)-1)%len(h.buf)]
}

// Latest returns the last admitted sample.
func (h *History) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.buf) == 0 {
		return Sample{}, false
	}

	return h.last(), true
}

// Snapshot returns a copy of the retained samples, oldest first.
func (h *History) Snapshot() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Sample, 0, len(h.buf))
	out = append(out, h.buf[h.start:]...)
	out = append(out, h.buf[:h.start]...)

	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buf)
}

func (h *History) Period() time.Duration {
	return h.period
}

// Capacity returns the bound and whether the history is bounded at all.
func (h *History) Capacity() (int, bool) {
	return h.capacity, h.capacity > 0
}

func (h *History) Origin() time.Time {
	return h.origin
}
