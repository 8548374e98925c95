package candle

import (
	"fmt"
	"math"
)

// Midpoints returns (high+low)/2 for every trading day in the series
func Midpoints(s Series) []float64 {
	n := min(len(s.High), len(s.Low))
	mids := make([]float64, n)
	for i := 0; i < n; i++ {
		mids[i] = (s.High[i] + s.Low[i]) / 2
	}
	return mids
}

// Average computes the arithmetic mean of the daily midpoint prices.
// An empty series is an error rather than NaN or zero, and so is a mean
// that is not finite.
func Average(s Series) (float64, error) {
	if s.Len() == 0 {
		return 0, &EmptySeriesError{Symbol: s.Symbol}
	}
	if len(s.Low) != len(s.High) {
		return 0, fmt.Errorf("%s: high=%d low=%d: %w", s.Symbol, len(s.High), len(s.Low), ErrMisalignedSeries)
	}

	sum := 0.0
	for _, mid := range Midpoints(s) {
		sum += mid
	}
	avg := sum / float64(s.Len())
	if math.IsInf(avg, 0) || math.IsNaN(avg) {
		return 0, fmt.Errorf("%s: %w", s.Symbol, ErrNonFinite)
	}
	return avg, nil
}
