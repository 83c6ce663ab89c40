// Package core provides the transaction categorization and forecast
// projection pipeline.
//
// This file contains helpers for coercing loosely typed amounts into
// decimals and for rounding them for output.
package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount coerces a decoded JSON value into a decimal.
//
// It accepts JSON numbers (json.Number or float64), Go integer types,
// decimals and numeric strings. Strings may use a decimal comma ("12,34").
// present is false for nil, which callers treat as "no amount".
// Any other type, or a string that is not a number, yields ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount(json.Number("-45.00")) -> -45, true, nil
//	ParseAmount("12,5")                -> 12.5, true, nil
//	ParseAmount(nil)                   -> 0, false, nil
//	ParseAmount(true)                  -> 0, true, ErrInvalidAmount
func ParseAmount(v any) (amount decimal.Decimal, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return x, true, nil
	case json.Number:
		return parseDecimalString(string(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, true, ErrInvalidAmount
		}
		return decimal.NewFromFloat(x), true, nil
	case float32:
		return ParseAmount(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true, nil
	case int32:
		return decimal.NewFromInt(int64(x)), true, nil
	case int64:
		return decimal.NewFromInt(x), true, nil
	case string:
		return parseDecimalString(x)
	default:
		return decimal.Zero, true, ErrInvalidAmount
	}
}

func parseDecimalString(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true, ErrInvalidAmount
	}
	// Normalize decimal comma to dot, but only when there is no dot already.
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, true, ErrInvalidAmount
	}
	return d, true, nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WholeUnits formats a non-negative amount rounded to whole units with
// banker's rounding, e.g. 2.5 -> "2", 3.5 -> "4". Negative amounts are
// reported as "0".
func WholeUnits(d decimal.Decimal) string {
	if d.IsNegative() {
		return "0"
	}
	return d.RoundBank(0).String()
}
