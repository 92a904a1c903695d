// Package cli holds the bootstrap shared by the fintrack binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/aggregate"
	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// Store is a ledger store owned by a process.
type Store interface {
	services.Store
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*storage.SQLiteRepository)(nil)
	_ Store = (*memory.Store)(nil)
)

// SetupLogger builds the process logger at level and makes it the slog default.
func SetupLogger(level, component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured ledger backend.
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store at %s: %w", cfg.SQLiteDBPath, err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// NewLedger wires the aggregate engine and snapshot cache around store.
// publisher may be nil. The returned cache is exposed for the janitor.
func NewLedger(cfg *config.Config, store services.Store, publisher services.EventPublisher) (*services.LedgerService, *cache.LRU[int64, core.BalanceSnapshot], error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("ledger timezone: %w", err)
	}
	scheme, err := cfg.Weeks()
	if err != nil {
		return nil, nil, err
	}

	snapshots := cache.NewLRU[int64, core.BalanceSnapshot](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	ledgerCfg := services.DefaultLedgerConfig()
	ledgerCfg.RecentLimit = cfg.RecentLimit

	ledger := services.NewLedgerService(store, aggregate.NewEngine(loc, scheme), publisher, snapshots, ledgerCfg)
	return ledger, snapshots, nil
}

// NewReadLedger builds an uncached ledger for processes that only read what
// another process writes. A snapshot cache there would serve stale balances.
func NewReadLedger(cfg *config.Config, store services.Store) (*services.LedgerService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("ledger timezone: %w", err)
	}
	scheme, err := cfg.Weeks()
	if err != nil {
		return nil, err
	}

	ledgerCfg := services.DefaultLedgerConfig()
	ledgerCfg.RecentLimit = cfg.RecentLimit
	return services.NewLedgerService(store, aggregate.NewEngine(loc, scheme), nil, nil, ledgerCfg), nil
}

// NewPublisher connects to the broker when AMQP is configured. It returns
// (nil, nil) when events are disabled.
func NewPublisher(cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP broker: %w", err)
	}
	return client, nil
}

// NewMirror returns the Google Sheets mirror, or nil when it is disabled.
func NewMirror(ctx context.Context, cfg *config.Config) (sheets.Mirror, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		TransactionsSheet:  cfg.GoogleSheetName,
		SummarySheet:       cfg.GoogleSummarySheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ShutdownContext bounds cleanup after the main context is gone.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
