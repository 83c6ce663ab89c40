package core

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DaysInMonth is the fixed month length used for projections.
const DaysInMonth = 30

// Status of a category against its budget.
const (
	StatusOnTrack    = "on track"
	StatusOverBudget = "over budget"
)

// ForecastEntry is the projection of one category.
type ForecastEntry struct {
	Category  string          `json:"-"`
	Spent     decimal.Decimal `json:"spent_so_far"`
	Budget    decimal.Decimal `json:"budget"`
	Projected decimal.Decimal `json:"projected_end_of_month"`
	Status    string          `json:"status"`
}

type forecastEntryJSON struct {
	Spent     json.Number `json:"spent_so_far"`
	Budget    json.Number `json:"budget"`
	Projected json.Number `json:"projected_end_of_month"`
	Status    string      `json:"status"`
}

// MarshalJSON writes amounts as JSON numbers.
func (e ForecastEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastEntryJSON{
		Spent:     json.Number(e.Spent.String()),
		Budget:    json.Number(e.Budget.String()),
		Projected: json.Number(e.Projected.String()),
		Status:    e.Status,
	})
}

// Forecast is the ordered list of category projections.
type Forecast []ForecastEntry

// Get returns the entry of a category.
func (f Forecast) Get(category string) (ForecastEntry, bool) {
	for _, e := range f {
		if e.Category == category {
			return e, true
		}
	}
	return ForecastEntry{}, false
}

// MarshalJSON writes the forecast as an object keyed by category, keeping
// the aggregation order of the keys.
func (f Forecast) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Project extrapolates each category's spend linearly to a 30-day month.
//
// day is the day of month the spend covers; values below 1 are treated as 1.
// Status compares the unrounded projection with the budget, equality counting
// as on track. Spent and projected amounts are rounded to cents.
func Project(spending Spending, budgets BudgetMap, day int) Forecast {
	daysElapsed := max(day, 1)
	days := decimal.NewFromInt(int64(daysElapsed))
	month := decimal.NewFromInt(DaysInMonth)

	out := make(Forecast, 0, len(spending))
	for _, ct := range spending {
		projected := ct.Total.Mul(month).Div(days)
		budget := budgets.For(ct.Category)
		status := StatusOnTrack
		if projected.GreaterThan(budget) {
			status = StatusOverBudget
		}
		out = append(out, ForecastEntry{
			Category:  ct.Category,
			Spent:     Round2(ct.Total),
			Budget:    budget,
			Projected: Round2(projected),
			Status:    status,
		})
	}
	return out
}

// ProjectAt projects using the day of month of today.
func ProjectAt(spending Spending, budgets BudgetMap, today time.Time) Forecast {
	return Project(spending, budgets, today.Day())
}
