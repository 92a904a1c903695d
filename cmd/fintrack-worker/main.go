package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("The worker reads the ledger the server writes and needs the sqlite backend",
			"backend", cfg.DataBackend,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	mirror, err := cli.NewMirror(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if mirror == nil {
		logger.Error("Nothing to do without GOOGLE_SPREADSHEET_ID",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	store, err := cli.OpenStore(cfg)
	if err != nil {
		logger.Error("Failed to open ledger store", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ledger, err := cli.NewReadLedger(cfg, store)
	if err != nil {
		logger.Error("Failed to build ledger", applog.FieldError, err.Error())
		os.Exit(1)
	}
	mirrorWorker := worker.NewMirrorWorker(ledger, mirror)

	// Catch up on anything recorded while the worker was down.
	logger.Info("Performing startup backfill")
	if err := mirrorWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", applog.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)

	consuming := false
	amqpClient, err := cli.NewPublisher(cfg)
	switch {
	case err != nil:
		logger.Error("Failed to connect to AMQP, falling back to periodic backfill", applog.FieldError, err.Error())
	case amqpClient == nil:
		logger.Info("AMQP disabled, mirroring by periodic backfill only")
	default:
		defer amqpClient.Close()
		consuming = true
		g.Go(func() error {
			err := amqpClient.ConsumeTransactionRecorded(gctx, mirrorWorker.HandleTransactionRecorded)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// Summaries follow the server's periodic refresh. Without events every
	// tick is a full backfill instead.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sync := mirrorWorker.SyncSummaries
				if !consuming {
					sync = mirrorWorker.Backfill
				}
				if err := sync(gctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Periodic mirror pass failed", applog.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
