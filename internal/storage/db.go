package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Account is a row of the accounts table.
type Account struct {
	AccountID            int64
	Balance              decimal.Decimal
	DailySpendingTotal   decimal.Decimal
	WeeklySpendingTotal  decimal.Decimal
	MonthlySpendingTotal decimal.Decimal
	YearlySpendingTotal  decimal.Decimal
	CurrentInvestments   decimal.Decimal
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Transaction is a row of the transactions table.
type Transaction struct {
	TransactionID int64
	AccountID     int64
	Amount        decimal.Decimal
	CreatedAt     time.Time
	Product       string
	Description   string
	SpendingType  string
}
