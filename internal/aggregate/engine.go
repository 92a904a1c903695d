package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Engine recomputes an account's aggregates from its transaction history.
// It holds no state between calls; the same history and instant always
// produce the same result.
type Engine struct {
	location *time.Location
	matchers map[Window]WindowMatcher
}

// NewEngine builds an engine evaluating windows in loc. A nil loc means UTC.
func NewEngine(loc *time.Location, scheme WeekScheme) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		location: loc,
		matchers: Matchers(scheme),
	}
}

// Location returns the time zone windows are evaluated in.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Compute sums the negated amounts of outflow transactions per window around
// now, and of investment transactions over all time.
func (e *Engine) Compute(history []core.Transaction, now time.Time) core.Aggregates {
	now = now.In(e.location)

	sums := map[Window]decimal.Decimal{
		Day:   decimal.Zero,
		Week:  decimal.Zero,
		Month: decimal.Zero,
		Year:  decimal.Zero,
	}
	investments := decimal.Zero

	for _, tx := range history {
		if !tx.SpendingType.IsOutflow() {
			continue
		}
		spent := tx.Amount.Neg()
		if tx.SpendingType == core.Investment {
			investments = investments.Add(spent)
		}

		ts := tx.Timestamp.In(e.location)
		for w, m := range e.matchers {
			if m.Contains(ts, now) {
				sums[w] = sums[w].Add(spent)
			}
		}
	}

	return core.Aggregates{
		Totals: core.Totals{
			Daily:   sums[Day],
			Weekly:  sums[Week],
			Monthly: sums[Month],
			Yearly:  sums[Year],
		},
		Investments: investments,
	}
}
