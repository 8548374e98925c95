package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tickeravg/internal/candle"
	"tickeravg/internal/fetcher"
)

// MockQuoteClient is a mock implementation of fetcher.QuoteClient for testing
type MockQuoteClient struct {
	FetchFunc func(ctx context.Context, symbol string, window candle.DateRange) (candle.Series, error)

	mu    sync.Mutex
	calls []string
}

// Fetch implements fetcher.QuoteClient
func (m *MockQuoteClient) Fetch(ctx context.Context, symbol string, window candle.DateRange) (candle.Series, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol, window)
	}
	return candle.Series{Symbol: symbol}, nil
}

// Calls returns the symbols fetched so far, in call order
func (m *MockQuoteClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// NewStaticQuoteClient serves fixed series and errors keyed by symbol.
// Symbols present in neither map fail with a client error.
func NewStaticQuoteClient(series map[string]candle.Series, errs map[string]error) *MockQuoteClient {
	return &MockQuoteClient{
		FetchFunc: func(ctx context.Context, symbol string, window candle.DateRange) (candle.Series, error) {
			if err, ok := errs[symbol]; ok {
				return candle.Series{}, err
			}
			if s, ok := series[symbol]; ok {
				s.Symbol = symbol
				return s, nil
			}
			return candle.Series{}, fetcher.ClassifyHTTPError(symbol, 404)
		},
	}
}

// Flat returns a series whose every day has the given high and low
func Flat(days int, high, low float64) candle.Series {
	s := candle.Series{}
	for i := 0; i < days; i++ {
		s.High = append(s.High, high)
		s.Low = append(s.Low, low)
	}
	return s
}

// CandlesJSON renders a candles API body for the given highs and lows
func CandlesJSON(high, low []float64) string {
	return fmt.Sprintf(`{"s":"ok","h":[%s],"l":[%s]}`, joinFloats(high), joinFloats(low))
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}
