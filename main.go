package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"tickeravg/internal/candle"
	"tickeravg/internal/config"
	"tickeravg/internal/coordinator"
	"tickeravg/internal/gate"
	"tickeravg/internal/logging"
	"tickeravg/internal/marketdata"
	"tickeravg/internal/metrics"
	"tickeravg/internal/ratelimit"
	"tickeravg/internal/report"
	"tickeravg/internal/symbols"
)

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx, os.Args[1:], afero.NewOsFs(), os.Stderr, time.Now()); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "tickeravg: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, fetches every symbol in the symbols file and
// writes the sorted report. Symbols that fail are dropped from the report;
// only setup errors, an interrupted run or an unwritable report fail the run.
func run(ctx context.Context, args []string, fs afero.Fs, stderr io.Writer, now time.Time) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}

	tickers, err := symbols.Load(fs, cfg.SymbolsFile)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.SymbolsFile).Msg("cannot load symbols")
		return err
	}

	window := candle.LastMonths(now, cfg.LookbackMonths)
	recorder := metrics.New()

	client := marketdata.NewClient(cfg.APIToken, cfg.BaseURL,
		marketdata.WithTimeout(cfg.RequestTimeout),
		marketdata.WithLimiter(ratelimit.New(cfg.RequestsPerSecond, 1)),
		marketdata.WithLogger(log),
	)

	dispatcher := coordinator.New(client, gate.New(cfg.Concurrency), window,
		coordinator.WithLogger(log),
		coordinator.WithRecorder(recorder),
	)

	log.Info().
		Int("symbols", len(tickers)).
		Int("concurrency", cfg.Concurrency).
		Str("from", window.FromParam()).
		Str("to", window.ToParam()).
		Msg("fetching daily candles")

	result, err := dispatcher.Run(ctx, tickers)
	if err != nil {
		log.Error().Err(err).Msg("run interrupted, report not written")
		return fmt.Errorf("run interrupted: %w", err)
	}

	entries := result.Store.Sorted()
	if err := report.Write(fs, cfg.OutputFile, entries); err != nil {
		log.Error().Err(err).Str("path", cfg.OutputFile).Msg("cannot write report")
		return err
	}

	log.Info().
		Int("written", len(entries)).
		Int("dropped", result.Stats.Failed).
		Str("path", cfg.OutputFile).
		Msg("report written")

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("cannot write metrics")
		}
	}

	return nil
}
