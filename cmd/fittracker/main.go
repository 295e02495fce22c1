package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/fittracker/internal/config"
	"github.com/meltforce/fittracker/internal/ingest/packages"
	"github.com/meltforce/fittracker/internal/journal"
	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/storage"
	"github.com/meltforce/fittracker/internal/tracker"
	"github.com/meltforce/fittracker/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file (optional)")
	input := flag.String("input", "", "package file (.txt lines or .yaml); - reads lines from stdin; empty runs the built-in sample")
	format := flag.String("format", "", "output format: text or json")
	failFast := flag.Bool("fail-fast", false, "stop at the first bad record")
	journalDir := flag.String("journal", "", "record summaries in a local SQLite journal in this directory")
	remote := flag.String("remote", "", "send packages to a fittracker server instead of computing locally")
	apiKey := flag.String("api-key", "", "API key for -remote (defaults to auth.api_key)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittracker", Version)
		return 0
	}

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *input != "" {
		cfg.Tracker.Input = *input
	}
	if *format != "" {
		cfg.Tracker.Format = *format
	}
	if *failFast {
		cfg.Tracker.FailFast = true
	}
	if *journalDir != "" {
		cfg.Tracker.JournalDir = *journalDir
	}
	if *apiKey != "" {
		cfg.Auth.APIKey = *apiKey
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pkgs, err := loadPackages(cfg.Tracker.Input)
	if err != nil {
		log.Error("failed to load packages", "error", err)
		return 1
	}
	log.Debug("packages loaded", "count", len(pkgs), "input", cfg.Tracker.Input)

	if *remote != "" {
		return runRemote(ctx, log, *remote, cfg.Auth.APIKey, cfg.Tracker.FailFast, pkgs)
	}

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open summary store", "error", err)
		return 1
	}
	defer closeSink()

	tr := tracker.New(sink, log, tracker.Options{
		Format:   cfg.Tracker.Format,
		FailFast: cfg.Tracker.FailFast,
		Source:   "cli",
	})
	stats, err := tr.Run(ctx, pkgs, os.Stdout)
	if err != nil {
		log.Error("run failed", "error", err)
		return 1
	}

	log.Debug("run complete",
		"received", stats.Received,
		"processed", stats.Processed,
		"failed", stats.Failed,
		"stored", stats.Stored,
	)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func loadPackages(input string) ([]models.Package, error) {
	switch input {
	case "":
		return packages.Default(), nil
	case "-":
		return packages.Parse(os.Stdin, packages.FormatLines)
	default:
		return packages.Load(input)
	}
}

// openSink picks the local journal when configured, else the PostgreSQL store
// when a database is configured, else no persistence.
func openSink(ctx context.Context, cfg *config.Config, log *slog.Logger) (tracker.Sink, func(), error) {
	if cfg.Tracker.JournalDir != "" {
		j, err := journal.Open(cfg.Tracker.JournalDir)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("journal opened", "dir", cfg.Tracker.JournalDir)
		return j, func() { j.Close() }, nil
	}

	if cfg.Database.Enabled() {
		db, err := storage.Open(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		log.Debug("database connected")
		return db, db.Close, nil
	}

	return nil, func() {}, nil
}

func runRemote(ctx context.Context, log *slog.Logger, serverURL, apiKey string, failFast bool, pkgs []models.Package) int {
	bad := packages.Bad(pkgs)
	for _, p := range bad {
		log.Error("skipping record", "code", p.Code, "error", p.Err)
	}
	if failFast && len(bad) > 0 {
		return 1
	}

	res, err := upload.NewClient(serverURL, apiKey).Ingest(ctx, pkgs)
	if err != nil {
		log.Error("remote ingest failed", "server", serverURL, "error", err)
		return 1
	}
	for _, m := range res.Messages {
		fmt.Println(m)
	}
	for _, e := range res.Errors {
		log.Error("record rejected by server", "index", e.Index, "code", e.Code, "error", e.Err)
	}
	if res.Failed > 0 || len(bad) > 0 {
		return 1
	}
	return 0
}
