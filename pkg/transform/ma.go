package transform

import (
	"fmt"
	"math"
	"time"

	"github.com/grexie/derivatives/pkg/series"
)

// MovingAverage computes the time-aware trailing mean of s: the value at
// timestamp t is the mean of the present values whose timestamps fall in
// (t-window, t]. The window is real time, not a row count, so unevenly
// spaced input is handled correctly. Positions backed by fewer than
// minPeriods present observations are absent; minPeriods below 1 defaults
// to 1. The scan keeps a running sum over a two-pointer window, so the whole
// series costs O(n) regardless of window size.
func MovingAverage(s *series.Series, window time.Duration, minPeriods int) (*series.Series, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", ErrInvalidParameter, window)
	}
	if minPeriods < 1 {
		minPeriods = 1
	}

	out := make([]float64, s.Len())
	sum := 0.0
	count := 0
	lo := 0
	for i := 0; i < s.Len(); i++ {
		if !s.Absent(i) {
			sum += s.Values[i]
			count++
		}
		// evict everything at or before t-window
		cutoff := s.Times[i].Add(-window)
		for !s.Times[lo].After(cutoff) {
			if !s.Absent(lo) {
				sum -= s.Values[lo]
				count--
			}
			lo++
		}
		if count < minPeriods {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}

	return s.Derive(movingAverageSuffix(window), out), nil
}

// MovingAverageChange computes the n-period change of the moving average of
// s. The change is taken over the moving average's own index, not the raw
// input's.
func MovingAverageChange(s *series.Series, window time.Duration, n int, minPeriods int) (*series.Series, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidParameter, n)
	}
	ma, err := MovingAverage(s, window, minPeriods)
	if err != nil {
		return nil, err
	}
	return Change(ma, n)
}
