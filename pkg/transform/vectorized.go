package transform

import (
	"fmt"
	"math"

	"github.com/grexie/derivatives/pkg/series"
	"gorgonia.org/tensor"
)

// ChangeVectorized computes the n-period percentage change over the whole
// series at once: a lagged copy of the backing array and element-wise tensor
// arithmetic, followed by masks for the absent and zero-denominator
// positions. The input index is preserved on the result so values can be
// matched back to timestamps.
func ChangeVectorized(s *series.Series, n int) (*series.Series, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidParameter, n)
	}
	if s.Len() == 0 {
		return s.Derive(changeSuffix(n), []float64{}), nil
	}

	cur := make([]float64, s.Len())
	copy(cur, s.Values)
	old := make([]float64, s.Len())
	for i := range old {
		old[i] = math.NaN()
	}
	if n < len(old) {
		copy(old[n:], s.Values[:len(old)-n])
	}

	a := tensor.New(tensor.WithShape(len(cur)), tensor.WithBacking(cur))
	b := tensor.New(tensor.WithShape(len(old)), tensor.WithBacking(old))

	diff, err := tensor.Sub(a, b)
	if err != nil {
		return nil, fmt.Errorf("tensor subtract: %w", err)
	}
	ratio, err := tensor.Div(diff, b)
	if err != nil {
		return nil, fmt.Errorf("tensor divide: %w", err)
	}

	out := ratio.Data().([]float64)
	for i := range out {
		if math.IsNaN(old[i]) || math.IsNaN(cur[i]) || old[i] == 0 {
			out[i] = math.NaN()
		}
	}

	return s.Derive(changeSuffix(n), out), nil
}
