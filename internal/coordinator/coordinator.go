package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"tickeravg/internal/candle"
	"tickeravg/internal/fetcher"
	"tickeravg/internal/gate"
	"tickeravg/internal/results"
)

// Error type labels for failures that are not a fetcher.FetchError
const (
	errorTypeEmptySeries = "empty_series"
	errorTypeMisaligned  = "misaligned_series"
	errorTypeNonFinite   = "non_finite"
	errorTypePanic       = "panic"
	errorTypeCanceled    = string(fetcher.ErrorTypeCanceled)
)

// Recorder receives per-fetch metrics
type Recorder interface {
	FetchStarted()
	FetchFinished(d time.Duration)
	RecordOutcome(errorType string)
}

type nopRecorder struct{}

func (nopRecorder) FetchStarted()                 {}
func (nopRecorder) FetchFinished(d time.Duration) {}
func (nopRecorder) RecordOutcome(string)          {}

// Dispatcher fetches and averages many symbols concurrently, bounded by a gate
type Dispatcher struct {
	client    fetcher.QuoteClient
	gate      *gate.Gate
	window    candle.DateRange
	log       zerolog.Logger
	recorder  Recorder
	onFailure func(fetcher.Result)
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used to report dropped symbols
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithFailureHandler registers fn to be called for every dropped symbol.
// fn is called from worker goroutines and must be safe for concurrent use.
func WithFailureHandler(fn func(fetcher.Result)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

// New creates a Dispatcher that fetches candles over window through client
func New(client fetcher.QuoteClient, g *gate.Gate, window candle.DateRange, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:   client,
		gate:     g,
		window:   window,
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats summarises one run
type Stats struct {
	Dispatched   int
	Succeeded    int
	Failed       int
	PeakInFlight int
}

// SuccessRate returns the share of dispatched symbols that produced a value, in percent
func (s Stats) SuccessRate() float64 {
	if s.Dispatched == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Dispatched) * 100
}

// Run is the outcome of one Dispatcher.Run call
type Run struct {
	Store *results.Store
	Stats Stats
}

// Run processes every symbol concurrently and waits for all of them.
// A symbol that fails at any stage is dropped from the store and reported
// through the logger, recorder and failure handler; it never aborts the run.
// If ctx is canceled, symbols still waiting for a slot are dropped and
// ctx.Err() is returned together with the drained run.
//
// Stats.PeakInFlight covers this run only: the gate's peak is reset when the
// run starts. Runs sharing a gate must therefore not overlap.
func (d *Dispatcher) Run(ctx context.Context, symbols []string) (*Run, error) {
	d.gate.ResetPeak()
	store := results.NewStore()
	var succeeded, failed atomic.Int64

	var wg conc.WaitGroup
	for _, symbol := range symbols {
		wg.Go(func() {
			value, err := d.process(ctx, symbol)
			if err != nil {
				failed.Add(1)
				d.reportFailure(symbol, err)
				return
			}
			store.Put(symbol, value)
			succeeded.Add(1)
			d.recorder.RecordOutcome("")
		})
	}
	wg.Wait()

	run := &Run{
		Store: store,
		Stats: Stats{
			Dispatched:   len(symbols),
			Succeeded:    int(succeeded.Load()),
			Failed:       int(failed.Load()),
			PeakInFlight: d.gate.Peak(),
		},
	}

	d.log.Info().
		Int("dispatched", run.Stats.Dispatched).
		Int("succeeded", run.Stats.Succeeded).
		Int("failed", run.Stats.Failed).
		Int("peak_in_flight", run.Stats.PeakInFlight).
		Float64("success_rate", run.Stats.SuccessRate()).
		Msg("run complete")

	return run, ctx.Err()
}

// process runs one symbol through the gate, the client and the aggregator.
// A panic anywhere below is converted into an error.
func (d *Dispatcher) process(ctx context.Context, symbol string) (value float64, err error) {
	if r := panics.Try(func() {
		err = d.gate.Do(ctx, func() error {
			start := time.Now()
			d.recorder.FetchStarted()
			defer func() { d.recorder.FetchFinished(time.Since(start)) }()

			series, ferr := d.client.Fetch(ctx, symbol, d.window)
			if ferr != nil {
				return ferr
			}
			if series.Symbol == "" {
				series.Symbol = symbol
			}
			value, ferr = candle.Average(series)
			return ferr
		})
	}); r != nil {
		return 0, fmt.Errorf("%s: %w", symbol, r.AsError())
	}
	return value, err
}

func (d *Dispatcher) reportFailure(symbol string, err error) {
	kind := errorType(err)
	d.recorder.RecordOutcome(kind)

	d.log.Warn().
		Str("symbol", symbol).
		Str("error_type", kind).
		Err(err).
		Msg("symbol dropped")

	if d.onFailure != nil {
		d.onFailure(fetcher.Result{Symbol: symbol, Error: err})
	}
}

func errorType(err error) string {
	var fe *fetcher.FetchError
	var emptyErr *candle.EmptySeriesError
	var panicErr *panics.ErrRecovered
	switch {
	case errors.As(err, &fe):
		return string(fe.Type)
	case errors.As(err, &emptyErr):
		return errorTypeEmptySeries
	case errors.Is(err, candle.ErrMisalignedSeries):
		return errorTypeMisaligned
	case errors.Is(err, candle.ErrNonFinite):
		return errorTypeNonFinite
	case errors.As(err, &panicErr):
		return errorTypePanic
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorTypeCanceled
	default:
		return string(fetcher.ErrorTypeUnknown)
	}
}
