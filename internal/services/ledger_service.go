package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// DefaultRecentLimit is how many transactions GetRecentTransactions returns
// when the caller does not ask for a specific number.
const DefaultRecentLimit = 5

// LedgerConfig tunes the ledger service.
type LedgerConfig struct {
	// RecentLimit replaces a non-positive limit in GetRecentTransactions (default: 5)
	RecentLimit int

	// Now is the clock transaction timestamps and windows are taken from (default: time.Now)
	Now func() time.Time
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		RecentLimit: DefaultRecentLimit,
		Now:         time.Now,
	}
}

// LedgerService applies transactions to accounts and answers balance queries.
// Writes to one account are serialised; writes to different accounts run
// concurrently.
type LedgerService struct {
	store     Store
	engine    *aggregate.Engine
	publisher EventPublisher
	snapshots SnapshotCache
	locks     *accountLocks
	config    LedgerConfig
}

// NewLedgerService wires the ledger. publisher and snapshots may be nil.
func NewLedgerService(store Store, engine *aggregate.Engine, publisher EventPublisher, snapshots SnapshotCache, config LedgerConfig) *LedgerService {
	if engine == nil {
		engine = aggregate.NewEngine(time.UTC, aggregate.WeekMonday)
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = DefaultRecentLimit
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &LedgerService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		snapshots: snapshots,
		locks:     newAccountLocks(),
		config:    config,
	}
}

// CreateAccount opens an account with zero balance and zero aggregates.
func (s *LedgerService) CreateAccount(ctx context.Context) (int64, error) {
	id, err := s.store.CreateAccount(ctx)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

// ProcessTransaction checks the account, validates req, then appends the
// transaction, moves the balance and recomputes every aggregate in one atomic
// store call. Validation failures leave no trace. A nil req.AccountID opens a
// new account.
func (s *LedgerService) ProcessTransaction(ctx context.Context, req core.TransactionRequest) (core.Receipt, error) {
	var (
		accountID    int64
		created      bool
		spendingType core.SpendingType
		err          error
	)
	if req.AccountID != nil {
		accountID = *req.AccountID
		unlock := s.locks.Lock(accountID)
		defer unlock()

		if _, err := s.store.GetAccount(ctx, accountID); err != nil {
			if errors.Is(err, core.ErrAccountNotFound) {
				return core.Receipt{}, err
			}
			return core.Receipt{}, &core.ProcessingError{Step: core.StepLoadAccount, Err: err}
		}
		if spendingType, err = req.Validate(); err != nil {
			return core.Receipt{}, err
		}
	} else {
		if spendingType, err = req.Validate(); err != nil {
			return core.Receipt{}, err
		}
		accountID, err = s.store.CreateAccount(ctx)
		if err != nil {
			return core.Receipt{}, &core.ProcessingError{Step: core.StepCreateAccount, Err: err}
		}
		created = true
		unlock := s.locks.Lock(accountID)
		defer unlock()
	}

	history, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return core.Receipt{}, &core.ProcessingError{Step: core.StepLoadHistory, Err: err}
	}

	now := s.config.Now().UTC()
	tx := core.Transaction{
		AccountID:    accountID,
		Amount:       spendingType.Sign(req.Amount),
		Timestamp:    now,
		Product:      req.Product,
		Description:  req.Description,
		SpendingType: spendingType,
	}
	agg := s.engine.Compute(append(history, tx), now)

	txID, account, err := s.store.ApplyTransaction(ctx, tx, agg)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return core.Receipt{}, err
		}
		return core.Receipt{}, &core.ProcessingError{Step: core.StepApply, Err: err}
	}

	s.invalidate(accountID)
	s.publish(ctx, accountID, txID, now)

	return core.Receipt{
		AccountID:      accountID,
		TransactionID:  txID,
		AccountCreated: created,
		Balance:        account.Balance,
	}, nil
}

// GetBalanceSnapshot returns balance and cached totals. It never creates an account.
// A miss is filled under the account lock so a concurrent write cannot be
// overwritten by the snapshot read before it.
func (s *LedgerService) GetBalanceSnapshot(ctx context.Context, accountID int64) (core.BalanceSnapshot, error) {
	if s.snapshots == nil {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return core.BalanceSnapshot{}, err
		}
		return account.Snapshot(), nil
	}

	if snap, ok := s.snapshots.Get(accountID); ok {
		return snap, nil
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	if snap, ok := s.snapshots.Get(accountID); ok {
		return snap, nil
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}

	snap := account.Snapshot()
	s.snapshots.Set(accountID, snap)
	return snap, nil
}

// GetRecentTransactions lists up to limit transactions, newest first.
// A non-positive limit falls back to the configured default.
func (s *LedgerService) GetRecentTransactions(ctx context.Context, accountID int64, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = s.config.RecentLimit
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListRecentTransactions(ctx, accountID, limit)
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// ListTransactions returns an account's full history, oldest first.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, accountID)
}

func (s *LedgerService) ListAccountIDs(ctx context.Context) ([]int64, error) {
	return s.store.ListAccountIDs(ctx)
}

// RefreshAggregates recomputes an account's totals at now from its stored
// history. Balance is left untouched.
func (s *LedgerService) RefreshAggregates(ctx context.Context, accountID int64, now time.Time) (core.Aggregates, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	history, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return core.Aggregates{}, fmt.Errorf("load history for account %d: %w", accountID, err)
	}

	agg := s.engine.Compute(history, now)
	if err := s.store.SetAggregates(ctx, accountID, agg); err != nil {
		return core.Aggregates{}, fmt.Errorf("store aggregates for account %d: %w", accountID, err)
	}

	s.invalidate(accountID)
	return agg, nil
}

// RefreshAll recomputes every account at the service clock's current instant
// and returns how many accounts were refreshed. Failures are logged and skipped.
func (s *LedgerService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.store.ListAccountIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	now := s.config.Now()
	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := s.RefreshAggregates(ctx, id, now); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh aggregates",
				applog.FieldOperation, applog.OpRefresh,
				applog.FieldAccountID, id,
				applog.FieldError, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *LedgerService) invalidate(accountID int64) {
	if s.snapshots != nil {
		s.snapshots.Delete(accountID)
	}
}

func (s *LedgerService) publish(ctx context.Context, accountID, txID int64, at time.Time) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping transaction event")
		return
	}

	// The transaction is committed; a lost event only delays the mirror.
	if err := s.publisher.PublishTransactionRecorded(ctx, accountID, txID, at); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"account_id", accountID,
			"transaction_id", txID,
			"error", err)
	}
}
