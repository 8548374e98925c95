package candle

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the date format used by the candles API for from/to parameters
const DateLayout = "2006-01-02"

// ErrMisalignedSeries is returned when the per-day arrays of a series differ in length
var ErrMisalignedSeries = errors.New("series arrays have different lengths")

// ErrNonFinite is returned when prices overflow the float64 range or are NaN
var ErrNonFinite = errors.New("average is not a finite number")

// EmptySeriesError is returned when a series has no trading days to average over
type EmptySeriesError struct {
	Symbol string
}

// Error implements the error interface
func (e *EmptySeriesError) Error() string {
	if e.Symbol == "" {
		return "empty price series"
	}
	return fmt.Sprintf("empty price series for %s", e.Symbol)
}

// DateRange is the inclusive calendar window candles are requested for
type DateRange struct {
	From time.Time
	To   time.Time
}

// LastMonths returns the window ending at now and starting the given number of
// calendar months earlier. The start day is clamped to the end of its month,
// so 31 March minus one month is the last day of February.
func LastMonths(now time.Time, months int) DateRange {
	return DateRange{
		From: subtractMonths(now, months),
		To:   now,
	}
}

func subtractMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month-time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// FromParam returns the start date formatted for the API
func (r DateRange) FromParam() string {
	return r.From.Format(DateLayout)
}

// ToParam returns the end date formatted for the API
func (r DateRange) ToParam() string {
	return r.To.Format(DateLayout)
}

// Series holds daily candles for one symbol as parallel arrays indexed by trading day
type Series struct {
	Symbol string
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []int64
	Time   []int64
}

// Len returns the number of trading days in the series
func (s Series) Len() int {
	return len(s.High)
}

// Validate checks that every populated array has the same length as High.
// Open, Close, Volume and Time may be omitted by the API and are only
// checked when present.
func (s Series) Validate() error {
	n := len(s.High)
	if len(s.Low) != n {
		return fmt.Errorf("%s: high=%d low=%d: %w", s.Symbol, n, len(s.Low), ErrMisalignedSeries)
	}
	for name, l := range map[string]int{
		"open":   len(s.Open),
		"close":  len(s.Close),
		"volume": len(s.Volume),
		"time":   len(s.Time),
	} {
		if l != 0 && l != n {
			return fmt.Errorf("%s: high=%d %s=%d: %w", s.Symbol, n, name, l, ErrMisalignedSeries)
		}
	}
	return nil
}
