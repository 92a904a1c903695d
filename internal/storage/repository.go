package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps writes serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened database. The schema must exist.
func NewWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return &core.StorageError{Op: op, Err: err}
}

// CreateAccount inserts an account with zero balance and zero aggregates.
func (r *SQLiteRepository) CreateAccount(ctx context.Context) (int64, error) {
	id, err := r.queries.CreateAccount(ctx, r.now())
	if err != nil {
		return 0, storageErr("create account", err)
	}

	slog.InfoContext(ctx, "Account created", "account_id", id)
	return id, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, storageErr("get account", err)
	}
	return toCoreAccount(row), nil
}

// GetAccountField reads a single allow-listed account field.
func (r *SQLiteRepository) GetAccountField(ctx context.Context, id int64, field core.AccountField) (decimal.Decimal, error) {
	column, ok := field.Column()
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown account field %d", field)
	}
	v, err := r.queries.GetAccountColumn(ctx, column, id)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, core.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, storageErr("get account field", err)
	}
	return v, nil
}

// SetAccountFields updates the given allow-listed fields in one statement.
func (r *SQLiteRepository) SetAccountFields(ctx context.Context, id int64, fields map[core.AccountField]decimal.Decimal) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]core.AccountField, 0, len(fields))
	for f := range fields {
		keys = append(keys, f)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	columns := make([]string, 0, len(keys))
	values := make([]decimal.Decimal, 0, len(keys))
	for _, f := range keys {
		column, ok := f.Column()
		if !ok {
			return fmt.Errorf("unknown account field %d", f)
		}
		columns = append(columns, column)
		values = append(values, fields[f])
	}

	n, err := r.queries.UpdateAccountColumns(ctx, id, columns, values, r.now())
	if err != nil {
		return storageErr("set account fields", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// AppendTransaction inserts a transaction record on its own. The account must exist.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := r.queries.InsertTransaction(ctx, insertParams(t, r.now()))
	if err != nil {
		return 0, storageErr("insert transaction", err)
	}
	return id, nil
}

// ApplyTransaction adds t.Amount to the balance, appends t and stores agg, all
// in one database transaction. Nothing is written if any step fails.
func (r *SQLiteRepository) ApplyTransaction(ctx context.Context, t core.Transaction, agg core.Aggregates) (int64, core.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.Account{}, storageErr("begin", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	row, err := q.GetAccount(ctx, t.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return 0, core.Account{}, storageErr("load account", err)
	}

	now := r.now()
	txID, err := q.InsertTransaction(ctx, insertParams(t, now))
	if err != nil {
		return 0, core.Account{}, storageErr("insert transaction", err)
	}

	balance := row.Balance.Add(t.Amount)
	if _, err := q.UpdateAccountState(ctx, UpdateAccountStateParams{
		AccountID:            t.AccountID,
		Balance:              balance,
		DailySpendingTotal:   agg.Totals.Daily,
		WeeklySpendingTotal:  agg.Totals.Weekly,
		MonthlySpendingTotal: agg.Totals.Monthly,
		YearlySpendingTotal:  agg.Totals.Yearly,
		CurrentInvestments:   agg.Investments,
		UpdatedAt:            now,
	}); err != nil {
		return 0, core.Account{}, storageErr("update account", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, core.Account{}, storageErr("commit", err)
	}

	slog.InfoContext(ctx, "Transaction applied",
		"account_id", t.AccountID,
		"transaction_id", txID,
		"spending_type", t.SpendingType,
		"amount", t.Amount.String(),
		"balance", balance.String())

	return txID, core.Account{
		ID:                 t.AccountID,
		Balance:            balance,
		Totals:             agg.Totals,
		CurrentInvestments: agg.Investments,
	}, nil
}

// SetAggregates overwrites the cached totals without touching the balance.
func (r *SQLiteRepository) SetAggregates(ctx context.Context, id int64, agg core.Aggregates) error {
	n, err := r.queries.UpdateAccountAggregates(ctx, UpdateAccountAggregatesParams{
		AccountID:            id,
		DailySpendingTotal:   agg.Totals.Daily,
		WeeklySpendingTotal:  agg.Totals.Weekly,
		MonthlySpendingTotal: agg.Totals.Monthly,
		YearlySpendingTotal:  agg.Totals.Yearly,
		CurrentInvestments:   agg.Investments,
		UpdatedAt:            r.now(),
	})
	if err != nil {
		return storageErr("update aggregates", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, storageErr("get transaction", err)
	}
	return toCoreTransactions([]Transaction{row})[0], nil
}

// ListTransactions returns the full history of an account, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return toCoreTransactions(rows), nil
}

// ListRecentTransactions returns up to limit transactions, newest first.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, accountID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecentTransactions(ctx, ListRecentTransactionsParams{
		AccountID: accountID,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, storageErr("list recent transactions", err)
	}
	return toCoreTransactions(rows), nil
}

func (r *SQLiteRepository) ListAccountIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListAccountIDs(ctx)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	return ids, nil
}

func insertParams(t core.Transaction, now time.Time) InsertTransactionParams {
	ts := t.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return InsertTransactionParams{
		AccountID:    t.AccountID,
		Amount:       t.Amount,
		CreatedAt:    ts.UTC(),
		Product:      t.Product,
		Description:  t.Description,
		SpendingType: string(t.SpendingType),
	}
}

func toCoreAccount(a Account) core.Account {
	return core.Account{
		ID:      a.AccountID,
		Balance: a.Balance,
		Totals: core.Totals{
			Daily:   a.DailySpendingTotal,
			Weekly:  a.WeeklySpendingTotal,
			Monthly: a.MonthlySpendingTotal,
			Yearly:  a.YearlySpendingTotal,
		},
		CurrentInvestments: a.CurrentInvestments,
	}
}

func toCoreTransactions(rows []Transaction) []core.Transaction {
	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		out[i] = core.Transaction{
			ID:           t.TransactionID,
			AccountID:    t.AccountID,
			Amount:       t.Amount,
			Timestamp:    t.CreatedAt.UTC(),
			Product:      t.Product,
			Description:  t.Description,
			SpendingType: core.SpendingType(t.SpendingType),
		}
	}
	return out
}
