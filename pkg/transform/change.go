package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/grexie/derivatives/pkg/series"
)

var ErrInvalidParameter = errors.New("invalid parameter")

// Change computes the n-period percentage change of s position by position.
// This is the reference strategy the vectorized and array strategies are
// validated against. The value at i is (v[i]-v[i-n])/v[i-n]; it is absent
// when fewer than n observations precede i, either operand is absent, or the
// prior value is zero. A zero denominator yields an absent value, never an
// infinity and never a panic.
func Change(s *series.Series, n int) (*series.Series, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidParameter, n)
	}

	out := make([]float64, s.Len())
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		old, cur := s.Values[i-n], s.Values[i]
		if math.IsNaN(old) || math.IsNaN(cur) || old == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (cur - old) / old
	}

	return s.Derive(changeSuffix(n), out), nil
}

// ChangeArray computes the same n-period change over a raw value buffer with
// no timestamp index attached. Output order mirrors input order exactly, so
// the caller can re-attach timestamps positionally.
func ChangeArray(values []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidParameter, n)
	}

	out := make([]float64, len(values))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		old, cur := values[i-n], values[i]
		if math.IsNaN(old) || math.IsNaN(cur) || old == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (cur - old) / old
	}

	return out, nil
}
