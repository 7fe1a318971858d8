// Package history holds temperature samples and the time-gated buffers that
// retain them at a fixed granularity.
package history

import (
	"fmt"
	"time"
)

// Sample is one immutable (value, timestamp) observation.
type Sample struct {
	value float64
	time  time.Time
}

// NewSample stamps value with the current time.
func NewSample(value float64) Sample {
	return Sample{value: value, time: time.Now()}
}

// NewSampleAt stamps value with t.
func NewSampleAt(value float64, t time.Time) Sample {
	return Sample{value: value, time: t}
}

func (s Sample) Value() float64 {
	return s.value
}

func (s Sample) Time() time.Time {
	return s.time
}

// Unix returns the timestamp as fractional seconds since the epoch.
func (s Sample) Unix() float64 {
	return float64(s.time.UnixNano()) / float64(time.Second)
}

func (s Sample) String() string {
	return fmt.Sprintf("(%.2f, %g)", s.Unix(), s.value)
}
