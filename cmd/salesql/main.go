package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/vegasq/salesql/engine"
	"github.com/vegasq/salesql/explore"
	"github.com/vegasq/salesql/internal/config"
	"github.com/vegasq/salesql/internal/logger"
	"github.com/vegasq/salesql/output"
	"github.com/vegasq/salesql/reader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadDotEnv loads .env (or the given files) into the environment. A missing
// file is not an error; variables already set win.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup config.LookupEnv) error {
	cfg, err := config.Load(args, lookup)
	if err != nil {
		return err
	}

	log := logger.New(stderr, cfg.Verbose)

	formatter, err := output.NewFormatter(cfg.Format, stdout)
	if err != nil {
		return err
	}

	db := engine.Open(engine.WithLogger(log), engine.WithWorkers(cfg.Workers))
	defer db.Close()

	if cfg.Query != "" {
		return runQuery(ctx, log, db, cfg, formatter)
	}

	log.Debug("starting exploration", "dataset", cfg.Dataset, "workers", cfg.Workers)
	return explore.Run(ctx, db, explore.Options{
		Pattern:   cfg.Dataset,
		Preview:   cfg.Preview,
		Out:       stdout,
		Formatter: formatter,
		Logger:    log,
	})
}

// runQuery executes the statements in cfg.Query and prints every result. The
// dataset is bound as df when it matches any file.
func runQuery(ctx context.Context, log *slog.Logger, db *engine.DB, cfg *config.Config, formatter output.Formatter) error {
	var opts []engine.ExecOption

	df, err := reader.ReadMultipleFiles(ctx, cfg.Dataset, reader.ScanOptions{Workers: cfg.Workers})
	switch {
	case err == nil:
		log.Debug("dataset loaded", "dataset", cfg.Dataset, "rows", df.Len())
		opts = append(opts, engine.WithFrame(explore.FrameName, df))
	case errors.Is(err, reader.ErrNoFilesMatched):
		log.Warn("dataset matched no files, df is not available", "dataset", cfg.Dataset)
	default:
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	results, err := db.ExecScript(ctx, cfg.Query, opts...)
	if err != nil {
		return err
	}
	for _, res := range results {
		// DDL
		if res.Width() == 0 {
			continue
		}
		if err := formatter.Format(res); err != nil {
			return err
		}
	}
	return nil
}
