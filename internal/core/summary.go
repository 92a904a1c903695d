package core

import "github.com/shopspring/decimal"

// BalanceSnapshot is the read view of an account's balance and cached totals.
type BalanceSnapshot struct {
	AccountID   int64
	Balance     decimal.Decimal
	Daily       decimal.Decimal
	Weekly      decimal.Decimal
	Monthly     decimal.Decimal
	Yearly      decimal.Decimal
	Investments decimal.Decimal
}

// AccountField names a single numeric column of an account.
// Only the values below are valid; storage maps them to fixed column names.
type AccountField int

const (
	FieldBalance AccountField = iota + 1
	FieldDailyTotal
	FieldWeeklyTotal
	FieldMonthlyTotal
	FieldYearlyTotal
	FieldCurrentInvestments
)

var accountFieldNames = map[AccountField]string{
	FieldBalance:            "balance",
	FieldDailyTotal:         "daily_spending_total",
	FieldWeeklyTotal:        "weekly_spending_total",
	FieldMonthlyTotal:       "monthly_spending_total",
	FieldYearlyTotal:        "yearly_spending_total",
	FieldCurrentInvestments: "current_investments",
}

// Column returns the storage column for the field and false for unknown values.
func (f AccountField) Column() (string, bool) {
	name, ok := accountFieldNames[f]
	return name, ok
}

func (f AccountField) String() string {
	if name, ok := accountFieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// Get reads the field from the account.
func (a Account) Get(f AccountField) (decimal.Decimal, bool) {
	switch f {
	case FieldBalance:
		return a.Balance, true
	case FieldDailyTotal:
		return a.Totals.Daily, true
	case FieldWeeklyTotal:
		return a.Totals.Weekly, true
	case FieldMonthlyTotal:
		return a.Totals.Monthly, true
	case FieldYearlyTotal:
		return a.Totals.Yearly, true
	case FieldCurrentInvestments:
		return a.CurrentInvestments, true
	}
	return decimal.Zero, false
}

// Set writes the field on the account.
func (a *Account) Set(f AccountField, v decimal.Decimal) bool {
	switch f {
	case FieldBalance:
		a.Balance = v
	case FieldDailyTotal:
		a.Totals.Daily = v
	case FieldWeeklyTotal:
		a.Totals.Weekly = v
	case FieldMonthlyTotal:
		a.Totals.Monthly = v
	case FieldYearlyTotal:
		a.Totals.Yearly = v
	case FieldCurrentInvestments:
		a.CurrentInvestments = v
	default:
		return false
	}
	return true
}
