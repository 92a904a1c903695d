package google

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Column layout of the transactions sheet:
// A transaction_id, B account_id, C timestamp, D spending type, E amount, F product, G description.
func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.AccountID,
		tx.Timestamp.UTC().Format(time.RFC3339),
		string(tx.SpendingType),
		tx.Amount.StringFixed(2),
		tx.Product,
		tx.Description,
	}
}

// Column layout of the summary sheet:
// A account_id, B balance, C-F daily..yearly, G investments, H updated at.
func summaryRow(snap core.BalanceSnapshot, updatedAt time.Time) []any {
	return []any{
		snap.AccountID,
		snap.Balance.StringFixed(2),
		snap.Daily.StringFixed(2),
		snap.Weekly.StringFixed(2),
		snap.Monthly.StringFixed(2),
		snap.Yearly.StringFixed(2),
		snap.Investments.StringFixed(2),
		updatedAt.UTC().Format(time.RFC3339),
	}
}

// indexIDs maps the numeric id in column A to its 1-based row number.
// Header and blank rows are skipped.
func indexIDs(values [][]any) map[int64]int {
	out := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = i + 1
	}
	return out
}

var rangeRow = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range such as "Accounts!A7:H7".
func rowFromRange(a1 string) (int, bool) {
	m := rangeRow.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
