// Command fncheck runs YAML conformance cases against the built-in
// spreadsheet functions and reports mismatches.
//
//	fncheck [-config fncheck.toml] [-json] [-v] path...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/config"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/conformance"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/numfmt"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/telemetry"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (TOML)")
	jsonOutput := flag.Bool("json", false, "Write the report as JSON (overrides runner.output)")
	verbose := flag.Bool("v", false, "List passing cases in the text report")
	workers := flag.Int("workers", 0, "Number of concurrent workers (overrides runner.workers)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fncheck [flags] path...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *jsonOutput {
		cfg.Runner.Output = "json"
	}
	if *workers > 0 {
		cfg.Runner.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	os.Exit(run(cfg, logger, *verbose, flag.Args()))
}

func run(cfg *config.Config, logger *slog.Logger, verbose bool, paths []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suites, err := conformance.LoadAll(paths...)
	if err != nil {
		logger.Error("failed to load cases", "error", err)
		return 1
	}

	metrics := telemetry.Init(cfg.Metrics.Enabled)
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down metrics", "error", err)
		}
	}()
	observer, err := telemetry.NewObserver(metrics.MeterProvider)
	if err != nil {
		logger.Error("failed to create metrics observer", "error", err)
		return 1
	}

	runner := conformance.NewRunner(conformance.Config{
		Workers:     cfg.Runner.Workers,
		Tolerance:   cfg.Runner.Tolerance,
		CaseTimeout: cfg.Runner.CaseTimeout,
		Evaluator:   cfg.Options(),
		Observer:    observer,
		Logger:      logger,
	})

	report, err := runner.Run(ctx, suites...)
	if err != nil {
		logger.Error("conformance run failed", "error", err)
		if report == nil {
			return 1
		}
	}

	format := numfmt.Compile(cfg.Runner.NumberFormat)
	if cfg.Runner.Output == "json" {
		err = report.WriteJSON(os.Stdout, format)
	} else {
		err = report.WriteText(os.Stdout, format, verbose)
	}
	if err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}

	if metrics.Enabled() {
		summary, err := metrics.Summarize(ctx)
		if err != nil {
			logger.Warn("failed to collect metrics", "error", err)
		} else {
			logger.Info("function metrics",
				"total_calls", summary.TotalCalls,
				"total_ms", summary.TotalMillis,
				"calls", summary.Calls,
				"errors", summary.Errors)
		}
	}

	if !report.OK() {
		return 1
	}
	return 0
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
