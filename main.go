package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/api"
	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/logging"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/parser"
	"github.com/insightdelivered/statement-reconciler/internal/reconcile"
	"github.com/insightdelivered/statement-reconciler/internal/repository"
	"github.com/insightdelivered/statement-reconciler/internal/scheduler"
	"github.com/insightdelivered/statement-reconciler/internal/writer"
)

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func usage() {
	fmt.Fprintf(os.Stderr, `Statement Reconciler
by Insight Delivered

Ingests bank statement exports (Windows-1251, ';'-separated) from a report
directory and applies them to the ledger, resolving card holds against
settled operations.

Usage:
  statement-reconciler serve [flags]           watch the report directory
  statement-reconciler convert [flags] <report.csv> [report2.csv ...]
  statement-reconciler version

Run 'statement-reconciler <command> -help' for command flags.

Environment:
  REPORTS_DIR           report directory (default ./reports)
  SWEEP_INITIAL_DELAY   delay before the first sweep (default 30s)
  SWEEP_INTERVAL        delay between sweeps (default 10m)
  INTAKE_ADDR           HTTP upload intake address, empty to disable
  INTAKE_BODY_LIMIT     maximum upload size in bytes (default 16MiB)
  LEDGER_ACCOUNTS       comma-separated known accounts, empty accepts all
  LOG_LEVEL, LOG_FORMAT, LOG_INCLUDE_CALLER

Examples:
  # Sweep ./reports every 10 minutes and accept uploads on :8080
  INTAKE_ADDR=:8080 statement-reconciler serve

  # Process whatever is pending once and exit
  statement-reconciler serve -dir /var/spool/statements -once

  # Inspect a report as canonical CSV
  statement-reconciler convert -output july-canonical.txt july.csv
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Printf("statement-reconciler v%s\n", version)
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fatalf("Error: %v\n", err)
	}
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dir := fs.String("dir", cfg.Reports.Dir, "Report directory")
	initialDelay := fs.Duration("initial-delay", cfg.Sweep.InitialDelay, "Delay before the first sweep")
	interval := fs.Duration("interval", cfg.Sweep.Interval, "Delay between the end of one sweep and the start of the next")
	listen := fs.String("listen", cfg.Intake.Addr, "HTTP upload intake address (empty disables the intake)")
	once := fs.Bool("once", false, "Run a single sweep and exit")
	fs.Parse(args)

	cfg.Reports.Dir = *dir
	cfg.Sweep.InitialDelay = *initialDelay
	cfg.Sweep.Interval = *interval
	cfg.Intake.Addr = *listen
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)

	repo, err := repository.New(cfg.Reports.Dir, parser.New())
	if err != nil {
		return err
	}
	engine := reconcile.NewEngine(repo, ledger.NewMemory(cfg.Ledger.Accounts...), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sweep := func(ctx context.Context) error {
		result, err := engine.ProcessNewReports(ctx)
		logger.Info("sweep finished",
			"found", result.Found,
			"processed", result.Processed,
			"failed", result.Failed,
		)
		return err
	}

	if *once {
		if err := sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	sched, err := scheduler.New(sweep, cfg.Sweep.InitialDelay, cfg.Sweep.Interval, logger)
	if err != nil {
		return err
	}

	if cfg.Intake.Addr != "" {
		app := api.NewApp(&api.Handler{
			Reports: engine,
			Catalog: repo,
			Version: version,
			Logger:  logger.With("component", "intake"),
		}, cfg.Intake.BodyLimit)

		go func() {
			logger.Info("intake listening", "addr", cfg.Intake.Addr)
			if err := app.Listen(cfg.Intake.Addr); err != nil {
				logger.Error("intake stopped", "error", err)
				cancel()
			}
		}()
		defer func() {
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				logger.Warn("intake shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("watching report directory", "dir", cfg.Reports.Dir, "version", version)
	sched.Run(ctx)
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	output := fs.String("output", "", "Output file path (defaults to stdout)")
	header := fs.Bool("header", true, "Include report metadata rows in the output")
	utf8 := fs.Bool("utf8", false, "Read reports as UTF-8 instead of Windows-1251")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  statement-reconciler convert [flags] <report.csv> [report2.csv ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no input files")
	}
	if *output != "" && fs.NArg() > 1 {
		return errors.New("-output accepts a single input file")
	}

	p := parser.New()
	if *utf8 {
		p.Encoding = nil
	}
	w := &writer.CSVWriter{IncludeHeader: *header}

	for _, inputPath := range fs.Args() {
		if err := convertFile(p, w, inputPath, *output); err != nil {
			return fmt.Errorf("processing %s: %w", inputPath, err)
		}
	}
	return nil
}

func convertFile(p *parser.StatementParser, w *writer.CSVWriter, inputPath, outputPath string) error {
	info, err := os.Stat(inputPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processing: %s\n", inputPath)

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	operations, err := p.Parse(f)
	if err != nil {
		return err
	}

	report := &models.Report{
		ID:         models.ReportID{Name: filepath.Base(inputPath), CreatedAt: info.ModTime()},
		Operations: operations,
	}
	printSummary(os.Stderr, report)

	if outputPath == "" {
		return w.Write(os.Stdout, report)
	}
	if err := w.WriteToFile(outputPath, report); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "  Output: %s\n", outputPath)
	return nil
}

func printSummary(out io.Writer, report *models.Report) {
	var holds, cards int
	for _, op := range report.Operations {
		if op.TransactionID.IsHold() {
			holds++
		}
		if op.Card != nil {
			cards++
		}
	}
	fmt.Fprintf(out, "  Found %d operation(s), %d hold(s), %d card purchase(s)\n", len(report.Operations), holds, cards)
	if len(report.Operations) == 0 {
		fmt.Fprintln(out, "  Warning: No operations found. Check that the file is a statement export.")
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
