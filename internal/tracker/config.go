package tracker

import (
	"regexp"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

const DefaultReadsPerSample = 3

// Names served by the query server itself; a history cannot use them.
var reservedNames = map[string]struct{}{
	"latest":   {},
	"temp":     {},
	"temp_str": {},
	"metrics":  {},
	"healthz":  {},
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// HistorySpec describes one named History. A nil Capacity means unbounded.
type HistorySpec struct {
	Name     string
	Capacity *int
	Period   time.Duration
}

// Bounded returns a spec keeping at most capacity samples.
func Bounded(name string, capacity int, period time.Duration) HistorySpec {
	return HistorySpec{Name: name, Capacity: &capacity, Period: period}
}

// Unbounded returns a spec that never evicts.
func Unbounded(name string, period time.Duration) HistorySpec {
	return HistorySpec{Name: name, Period: period}
}

// DefaultHistories returns a new slice on every call, so callers may modify
// it freely.
func DefaultHistories() []HistorySpec {
	return []HistorySpec{
		Bounded("seconds", 100, time.Second),
		Bounded("minutes", 100, time.Minute),
		Bounded("five_minutes", 1440, 5*time.Minute),
		Unbounded("half_hours", 30*time.Minute),
	}
}

// IsReservedName reports whether name is taken by a fixed query route.
func IsReservedName(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

// Config is the per-instance tracker configuration.
type Config struct {
	MinPeriod      time.Duration
	ReadsPerSample int
	Histories      []HistorySpec
}

// Validate checks the configuration, treating a zero ReadsPerSample and an
// empty history list as their defaults.
func (c Config) Validate() error {
	errFactory := errors.New()

	if c.MinPeriod <= 0 {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidMinPeriod, c.MinPeriod))
	}
	if c.ReadsPerSample < 0 {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidReadCount, c.ReadsPerSample))
	}

	seen := make(map[string]struct{}, len(c.Histories))
	for _, spec := range c.Histories {
		if err := spec.validate(); err != nil {
			return err
		}
		if _, ok := seen[spec.Name]; ok {
			return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrDuplicateName, spec.Name))
		}
		seen[spec.Name] = struct{}{}
	}

	return nil
}

func (s HistorySpec) validate() error {
	errFactory := errors.New()

	switch {
	case IsReservedName(s.Name):
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrReservedName, s.Name))
	case !namePattern.MatchString(s.Name):
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidName, s.Name))
	}

	return nil
}

func (c Config) withDefaults() Config {
	if c.ReadsPerSample == 0 {
		c.ReadsPerSample = DefaultReadsPerSample
	}
	if len(c.Histories) == 0 {
		c.Histories = DefaultHistories()
	}
	return c
}
