package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FallbackTip is emitted when no other tip applies.
const FallbackTip = "Keep an eye on your budgets this month to maximize your savings!"

var (
	warnRatio    = decimal.RequireFromString("0.8")
	savingsRatio = decimal.RequireFromString("0.5")
)

// tipGroup renders the overspend tips of the categories whose name contains
// one of its keywords.
type tipGroup struct {
	keywords []string
	render   func(category, savings string) []string
}

var tipGroups = []tipGroup{
	{
		keywords: []string{"entertain", "subscription"},
		render: func(cat, n string) []string {
			return []string{
				fmt.Sprintf("Consider re-evaluating your %s to save an estimated $%s monthly.", cat, n),
				fmt.Sprintf("Look for discounts or bundle deals for your %s.", cat),
			}
		},
	},
	{
		keywords: []string{"transport"},
		render: func(_, n string) []string {
			return []string{
				fmt.Sprintf("Explore public transport options; you could save $%s monthly on fuel and parking.", n),
				"Consider carpooling or ride-sharing for extra savings.",
			}
		},
	},
	{
		keywords: []string{"food"},
		render: func(_, n string) []string {
			return []string{
				fmt.Sprintf("Reduce dining out; cooking at home could save $%s monthly.", n),
				"Plan meals ahead to avoid impulsive spending.",
			}
		},
	},
	{
		keywords: []string{"shop"},
		render: func(_, n string) []string {
			return []string{
				fmt.Sprintf("Review your shopping habits; you could save $%s monthly.", n),
				"Use price comparison tools before purchases.",
			}
		},
	},
}

func isSavings(category string) bool {
	return strings.Contains(strings.ToLower(category), "saving")
}

func matchTipGroup(category string) (tipGroup, bool) {
	lower := strings.ToLower(category)
	for _, g := range tipGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g, true
			}
		}
	}
	return tipGroup{}, false
}

// Recommend turns a forecast into advice, walking categories in forecast
// order. The result always holds at least one tip.
//
// Categories projected above 80% of their budget get their group's overspend
// tips; categories outside every group get none. A savings category spent
// below half its budget gets a contribution tip. Any other category projected
// within budget gets a positive note.
func Recommend(forecast Forecast) []string {
	var tips []string
	for _, e := range forecast {
		if e.Projected.GreaterThan(e.Budget.Mul(warnRatio)) {
			if g, ok := matchTipGroup(e.Category); ok {
				savings := WholeUnits(e.Projected.Sub(e.Budget))
				tips = append(tips, g.render(strings.ToLower(e.Category), savings)...)
			}
		}

		switch {
		case isSavings(e.Category):
			if e.Spent.LessThan(e.Budget.Mul(savingsRatio)) {
				tips = append(tips, "Increase your investment contributions by 5% to reach your saving goal faster.")
			}
		case e.Projected.LessThanOrEqual(e.Budget):
			tips = append(tips, fmt.Sprintf("Good job on %s! You could save even more by monitoring small daily expenses.", e.Category))
		}
	}

	if len(tips) == 0 {
		return []string{FallbackTip}
	}
	return tips
}
