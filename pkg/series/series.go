package series

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

var ErrIndexMisalignment = errors.New("series index misalignment")

// Series is a named, datetime-indexed numeric sequence. Absent values are
// NaN. Timestamps are strictly ascending; transforms return a fresh Series
// and never mutate their input.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

func New(name string, times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrIndexMisalignment, len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("%w: timestamps must be strictly ascending at position %d (%s then %s)",
				ErrIndexMisalignment, i, times[i-1].Format(time.RFC3339), times[i].Format(time.RFC3339))
		}
	}
	return &Series{Name: name, Times: times, Values: values}, nil
}

// Empty returns a zero-length series. Transforms map empty input to empty
// output rather than failing.
func Empty(name string) *Series {
	return &Series{Name: name, Times: []time.Time{}, Values: []float64{}}
}

func (s *Series) Len() int {
	return len(s.Values)
}

// Derive returns a new series over the same index, named by appending
// suffix to the base name.
func (s *Series) Derive(suffix string, values []float64) *Series {
	return &Series{Name: s.Name + suffix, Times: s.Times, Values: values}
}

// SameIndex reports whether both series cover exactly the same timestamps in
// the same order.
func (s *Series) SameIndex(other *Series) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.Times {
		if !s.Times[i].Equal(other.Times[i]) {
			return false
		}
	}
	return true
}

// Absent reports whether the value at position i is missing.
func (s *Series) Absent(i int) bool {
	return math.IsNaN(s.Values[i])
}

// present collects the non-absent values.
func (s *Series) present() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the present values, NaN if none.
func (s *Series) Mean() float64 {
	xs := s.present()
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Std returns the sample standard deviation of the present values, NaN if
// fewer than two are present.
func (s *Series) Std() float64 {
	xs := s.present()
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}
