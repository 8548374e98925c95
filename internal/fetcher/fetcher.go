package fetcher

import (
	"context"

	"tickeravg/internal/candle"
)

//go:generate mockgen -package=coordinator -destination=../coordinator/mock_quote_client_test.go -source=fetcher.go QuoteClient

// QuoteClient retrieves daily candles for one symbol over a date range.
// Implementations must be safe for concurrent use and must not retry.
type QuoteClient interface {
	// Fetch returns the daily series for symbol, or a *FetchError.
	Fetch(ctx context.Context, symbol string, window candle.DateRange) (candle.Series, error)
}
