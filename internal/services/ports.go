package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Store is the persistence the ledger needs. Both the SQLite repository and
// the in-memory store satisfy it.
type Store interface {
	CreateAccount(ctx context.Context) (int64, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error)
	ListRecentTransactions(ctx context.Context, accountID int64, limit int) ([]core.Transaction, error)
	ApplyTransaction(ctx context.Context, t core.Transaction, agg core.Aggregates) (int64, core.Account, error)
	SetAggregates(ctx context.Context, id int64, agg core.Aggregates) error
	ListAccountIDs(ctx context.Context) ([]int64, error)
}

// EventPublisher announces committed transactions to other processes.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, accountID, transactionID int64, at time.Time) error
}

// SnapshotCache holds balance snapshots keyed by account id.
type SnapshotCache interface {
	Get(key int64) (core.BalanceSnapshot, bool)
	Set(key int64, value core.BalanceSnapshot)
	Delete(key int64)
}
