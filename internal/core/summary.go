package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the month-to-date spend of one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Spending holds per-category totals in the order categories were first seen.
type Spending []CategoryTotal

// Get returns the total of a category and whether it had any activity.
func (s Spending) Get(category string) (decimal.Decimal, bool) {
	for _, ct := range s {
		if ct.Category == category {
			return ct.Total, true
		}
	}
	return decimal.Zero, false
}

// Aggregate sums transaction amounts per category. Categories without
// transactions do not appear in the result.
func Aggregate(txs []Transaction) Spending {
	index := make(map[string]int)
	out := Spending{}
	for _, tx := range txs {
		cat := tx.PrimaryCategory()
		i, ok := index[cat]
		if !ok {
			index[cat] = len(out)
			out = append(out, CategoryTotal{Category: cat, Total: tx.Amount})
			continue
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out
}

// MonthToDate keeps the transactions dated between the first day of today's
// month and today, inclusive. Transactions without a parseable
// YYYY-MM-DD date are kept.
func MonthToDate(txs []Transaction, today time.Time) []Transaction {
	y, m, d := today.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date == "" {
			out = append(out, tx)
			continue
		}
		dt, err := time.Parse(time.DateOnly, tx.Date)
		if err != nil {
			out = append(out, tx)
			continue
		}
		if dt.Before(start) || dt.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
