package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tickeravg/internal/candle"
	"tickeravg/internal/fetcher"
	"tickeravg/internal/ratelimit"
)

const (
	// DefaultBaseURL is the production API root
	DefaultBaseURL = "https://api.marketdata.app/v1"
	// DefaultTimeout bounds each candles request
	DefaultTimeout = 30 * time.Second
)

// Response statuses reported in the "s" field
const (
	statusOK     = "ok"
	statusNoData = "no_data"
	statusError  = "error"
)

var errMissingStatus = errors.New("response has no status field")

// CandlesResponse is the daily candles payload with one array per field
type CandlesResponse struct {
	Status string    `json:"s"`
	ErrMsg string    `json:"errmsg,omitempty"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []int64   `json:"v"`
	Time   []int64   `json:"t"`
}

// Client fetches daily candles from the marketdata.app REST API.
// It is safe for concurrent use.
type Client struct {
	client  *resty.Client
	timeout time.Duration
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLimiter paces requests through l
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger for request tracing
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a candles client authenticated with a bearer token
func NewClient(token, baseURL string, opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = fetcher.NewHTTPClient(baseURL, token, c.log)
	return c
}

// Fetch retrieves daily candles for symbol within window.
// The call is bounded by the client timeout and is never retried.
func (c *Client) Fetch(ctx context.Context, symbol string, window candle.DateRange) (candle.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			err = context.Cause(ctx)
		} else {
			// the limiter refuses up front when the wait would outlast the deadline
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return candle.Series{}, fetcher.ClassifyTransportError(symbol, err)
	}

	var result CandlesResponse
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from":     window.FromParam(),
			"to":       window.ToParam(),
			"format":   "json",
			"adjusted": "true",
		}).
		SetResult(&result).
		Get("/stocks/candles/D/" + url.PathEscape(symbol) + "/")

	if err != nil {
		if ctx.Err() != nil {
			err = context.Cause(ctx)
		}
		return candle.Series{}, fetcher.ClassifyTransportError(symbol, err)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("candles response")

	if !resp.IsSuccess() {
		return candle.Series{}, fetcher.ClassifyHTTPError(symbol, resp.StatusCode())
	}

	// Every candles payload carries "s". Without it the body was either not
	// JSON (resty only decodes JSON content types) or not a candles response.
	if result.Status == "" {
		return candle.Series{}, fetcher.NewDecodeError(symbol,
			fmt.Errorf("%w (content type %q)", errMissingStatus, resp.Header().Get("Content-Type")))
	}

	return toSeries(symbol, &result)
}

func toSeries(symbol string, r *CandlesResponse) (candle.Series, error) {
	switch r.Status {
	case statusError:
		msg := r.ErrMsg
		if msg == "" {
			msg = "api reported an error"
		}
		return candle.Series{}, fetcher.NewValidationError(symbol, msg, nil)
	case statusNoData:
		return candle.Series{Symbol: symbol}, nil
	case statusOK:
	default:
		return candle.Series{}, fetcher.NewValidationError(symbol, "unexpected status "+r.Status, nil)
	}

	s := candle.Series{
		Symbol: symbol,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
		Time:   r.Time,
	}
	if err := s.Validate(); err != nil {
		return candle.Series{}, fetcher.NewValidationError(symbol, "malformed candles", err)
	}
	return s, nil
}

var _ fetcher.QuoteClient = (*Client)(nil)
