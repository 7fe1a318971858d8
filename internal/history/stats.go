package history

import (
	"math"
	"time"
)

// Summary describes a run of samples.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	First time.Time
	Last  time.Time
}

// Summarize computes min/max/mean over samples. An empty input yields a zero
// Summary.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	sum := Summary{
		Count: len(samples),
		Min:   math.MaxFloat64,
		Max:   -math.MaxFloat64,
		First: samples[0].Time(),
		Last:  samples[len(samples)-1].Time(),
	}

	total := 0.0
	for _, s := range samples {
		sum.Min = math.Min(sum.Min, s.Value())
		sum.Max = math.Max(sum.Max, s.Value())
		total += s.Value()
	}
	sum.Mean = total / float64(len(samples))

	return sum
}

// Mean returns the arithmetic mean of values, or 0 for none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	total := 0.0
	for _, v := range values {
		total += v
	}

	return total / float64(len(values))
}
