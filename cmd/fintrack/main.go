package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	store, err := cli.OpenStore(cfg)
	if err != nil {
		logger.Error("Failed to open ledger store", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var publisher services.EventPublisher
	amqpClient, err := cli.NewPublisher(cfg)
	if err != nil {
		// Events are best effort; the ledger runs without them.
		logger.Warn("AMQP unavailable, transaction events disabled", applog.FieldError, err.Error())
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	ledger, snapshots, err := cli.NewLedger(cfg, store, publisher)
	if err != nil {
		logger.Error("Failed to build ledger", applog.FieldError, err.Error())
		os.Exit(1)
	}

	httpCfg := apphttp.DefaultConfig(":" + cfg.Port)
	httpCfg.MaxRecentLimit = 1000
	srv, err := apphttp.NewServer(httpCfg, ledger, store, logger)
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	janitor := cache.NewJanitor(time.Minute, snapshots, srv.Limiter())
	// Refresh runs here, behind the same account locks as the write path.
	refresher := worker.NewRefreshProcessor(ledger, worker.RefreshProcessorConfig{Interval: cfg.RefreshInterval})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(gctx)
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
