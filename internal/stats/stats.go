package stats

import (
	"math"
	"sort"
)

// SampleSet holds the observations collected for one metric during a pass
// over a result stream. It is append-only.
type SampleSet struct {
	Values []float64
	Min    float64
	Max    float64
	sum    float64
}

// NewSampleSet creates an empty SampleSet
func NewSampleSet() *SampleSet {
	return &SampleSet{
		Values: make([]float64, 0, 1000),
	}
}

// Add appends an observation
func (s *SampleSet) Add(value float64) {
	if len(s.Values) == 0 || value < s.Min {
		s.Min = value
	}
	if len(s.Values) == 0 || value > s.Max {
		s.Max = value
	}
	s.Values = append(s.Values, value)
	s.sum += value
}

// Len returns the number of observations
func (s *SampleSet) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean. An empty set yields NaN.
func (s *SampleSet) Mean() float64 {
	return s.sum / float64(len(s.Values))
}

// StdDev returns the population standard deviation (divisor N).
// Two passes: the mean first, then the squared deviations from it.
func (s *SampleSet) StdDev() float64 {
	return StdDev(s.Values)
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s *SampleSet) Percentile(p float64) float64 {
	return Percentile(s.Values, p)
}

// Mean returns the arithmetic mean of values
func Mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values
func StdDev(values []float64) float64 {
	mean := Mean(values)

	squaredDiffs := 0.0
	for _, v := range values {
		d := v - mean
		squaredDiffs += d * d
	}
	variance := squaredDiffs / float64(len(values))
	return math.Sqrt(variance)
}

// Percentile calculates the percentile of values using linear interpolation
// between the two closest ranks. Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	// Make a copy and sort
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
