package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EarningMoney SpendingType = "EarningMoney"
	Investment   SpendingType = "Investment"
	Spending     SpendingType = "Spending"
	Bills        SpendingType = "Bills"
)

type (
	SpendingType string

	Account struct {
		ID                 int64
		Balance            decimal.Decimal
		Totals             Totals
		CurrentInvestments decimal.Decimal
	}

	// Totals holds the cached windowed spending sums of an account.
	Totals struct {
		Daily   decimal.Decimal
		Weekly  decimal.Decimal
		Monthly decimal.Decimal
		Yearly  decimal.Decimal
	}

	// Aggregates is everything recomputed from an account's history.
	Aggregates struct {
		Totals      Totals
		Investments decimal.Decimal
	}

	Transaction struct {
		ID           int64
		AccountID    int64
		Amount       decimal.Decimal // signed: positive for income
		Timestamp    time.Time
		Product      string
		Description  string
		SpendingType SpendingType
	}

	// TransactionRequest is an incoming request to record a transaction.
	// A nil AccountID asks for a new account to be created first.
	TransactionRequest struct {
		AccountID    *int64
		SpendingType string
		Amount       decimal.Decimal // positive magnitude
		Product      string
		Description  string
	}

	Receipt struct {
		AccountID      int64
		TransactionID  int64
		AccountCreated bool
		Balance        decimal.Decimal
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidSpendingType = errors.New("invalid spending type")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// SpendingTypes lists every accepted spending type in display order.
var SpendingTypes = []SpendingType{EarningMoney, Investment, Spending, Bills}

// ParseSpendingType accepts the canonical names case-insensitively and the
// legacy display label "Earning Money".
func ParseSpendingType(s string) (SpendingType, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Earning Money") {
		return EarningMoney, nil
	}
	for _, st := range SpendingTypes {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", ErrInvalidSpendingType
}

func (t SpendingType) Validate() error {
	switch t {
	case EarningMoney, Investment, Spending, Bills:
		return nil
	}
	return ErrInvalidSpendingType
}

// IsOutflow reports whether the type debits the balance.
func (t SpendingType) IsOutflow() bool {
	return t == Investment || t == Spending || t == Bills
}

// Sign applies the spending type's sign to a positive magnitude.
func (t SpendingType) Sign(amount decimal.Decimal) decimal.Decimal {
	if t.IsOutflow() {
		return amount.Neg()
	}
	return amount
}

func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (r TransactionRequest) Validate() (SpendingType, error) {
	st, err := ParseSpendingType(r.SpendingType)
	if err != nil {
		return "", err
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return "", err
	}
	return st, nil
}

// Snapshot returns the read-only balance view of the account.
func (a Account) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		AccountID:   a.ID,
		Balance:     a.Balance,
		Daily:       a.Totals.Daily,
		Weekly:      a.Totals.Weekly,
		Monthly:     a.Totals.Monthly,
		Yearly:      a.Totals.Yearly,
		Investments: a.CurrentInvestments,
	}
}
