package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const createAccount = `INSERT INTO accounts (balance, created_at, updated_at) VALUES ('0', ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, createAccount, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getAccount = `SELECT account_id, balance, daily_spending_total, weekly_spending_total,
       monthly_spending_total, yearly_spending_total, current_investments, created_at, updated_at
FROM accounts
WHERE account_id = ?`

func (q *Queries) GetAccount(ctx context.Context, accountID int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, accountID)
	var a Account
	err := row.Scan(
		&a.AccountID,
		&a.Balance,
		&a.DailySpendingTotal,
		&a.WeeklySpendingTotal,
		&a.MonthlySpendingTotal,
		&a.YearlySpendingTotal,
		&a.CurrentInvestments,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

const listAccountIDs = `SELECT account_id FROM accounts ORDER BY account_id`

func (q *Queries) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listAccountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const updateAccountState = `UPDATE accounts
SET balance = ?, daily_spending_total = ?, weekly_spending_total = ?, monthly_spending_total = ?,
    yearly_spending_total = ?, current_investments = ?, updated_at = ?
WHERE account_id = ?`

type UpdateAccountStateParams struct {
	AccountID            int64
	Balance              decimal.Decimal
	DailySpendingTotal   decimal.Decimal
	WeeklySpendingTotal  decimal.Decimal
	MonthlySpendingTotal decimal.Decimal
	YearlySpendingTotal  decimal.Decimal
	CurrentInvestments   decimal.Decimal
	UpdatedAt            time.Time
}

// UpdateAccountState writes balance and every aggregate, returning rows affected.
func (q *Queries) UpdateAccountState(ctx context.Context, arg UpdateAccountStateParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountState,
		arg.Balance,
		arg.DailySpendingTotal,
		arg.WeeklySpendingTotal,
		arg.MonthlySpendingTotal,
		arg.YearlySpendingTotal,
		arg.CurrentInvestments,
		arg.UpdatedAt,
		arg.AccountID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateAccountAggregates = `UPDATE accounts
SET daily_spending_total = ?, weekly_spending_total = ?, monthly_spending_total = ?,
    yearly_spending_total = ?, current_investments = ?, updated_at = ?
WHERE account_id = ?`

type UpdateAccountAggregatesParams struct {
	AccountID            int64
	DailySpendingTotal   decimal.Decimal
	WeeklySpendingTotal  decimal.Decimal
	MonthlySpendingTotal decimal.Decimal
	YearlySpendingTotal  decimal.Decimal
	CurrentInvestments   decimal.Decimal
	UpdatedAt            time.Time
}

func (q *Queries) UpdateAccountAggregates(ctx context.Context, arg UpdateAccountAggregatesParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountAggregates,
		arg.DailySpendingTotal,
		arg.WeeklySpendingTotal,
		arg.MonthlySpendingTotal,
		arg.YearlySpendingTotal,
		arg.CurrentInvestments,
		arg.UpdatedAt,
		arg.AccountID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetAccountColumn reads one numeric column. column must come from
// core.AccountField.Column, never from caller input.
func (q *Queries) GetAccountColumn(ctx context.Context, column string, accountID int64) (decimal.Decimal, error) {
	var v decimal.Decimal
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE account_id = ?`, column)
	err := q.db.QueryRowContext(ctx, query, accountID).Scan(&v)
	return v, err
}

// UpdateAccountColumns sets the given numeric columns. Column names must come
// from core.AccountField.Column.
func (q *Queries) UpdateAccountColumns(ctx context.Context, accountID int64, columns []string, values []decimal.Decimal, now time.Time) (int64, error) {
	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for i, c := range columns {
		sets = append(sets, c+" = ?")
		args = append(args, values[i])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, accountID)

	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE account_id = ?`, strings.Join(sets, ", "))
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertTransaction = `INSERT INTO transactions (account_id, amount, created_at, product, description, spending_type)
VALUES (?, ?, ?, ?, ?, ?)`

type InsertTransactionParams struct {
	AccountID    int64
	Amount       decimal.Decimal
	CreatedAt    time.Time
	Product      string
	Description  string
	SpendingType string
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertTransaction,
		arg.AccountID,
		arg.Amount,
		arg.CreatedAt,
		arg.Product,
		arg.Description,
		arg.SpendingType,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listTransactionsByAccount = `SELECT transaction_id, account_id, amount, created_at, product, description, spending_type
FROM transactions
WHERE account_id = ?
ORDER BY transaction_id`

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const getTransaction = `SELECT transaction_id, account_id, amount, created_at, product, description, spending_type
FROM transactions
WHERE transaction_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, transactionID int64) (Transaction, error) {
	var t Transaction
	err := q.db.QueryRowContext(ctx, getTransaction, transactionID).Scan(
		&t.TransactionID,
		&t.AccountID,
		&t.Amount,
		&t.CreatedAt,
		&t.Product,
		&t.Description,
		&t.SpendingType,
	)
	return t, err
}

// Transaction ids grow with insertion and timestamps are assigned at insertion,
// so id order is timestamp order.
const listRecentTransactions = `SELECT transaction_id, account_id, amount, created_at, product, description, spending_type
FROM transactions
WHERE account_id = ?
ORDER BY transaction_id DESC
LIMIT ?`

type ListRecentTransactionsParams struct {
	AccountID int64
	Limit     int64
}

func (q *Queries) ListRecentTransactions(ctx context.Context, arg ListRecentTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecentTransactions, arg.AccountID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanTransactions(rows rowScanner) ([]Transaction, error) {
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.TransactionID,
			&t.AccountID,
			&t.Amount,
			&t.CreatedAt,
			&t.Product,
			&t.Description,
			&t.SpendingType,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
