package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical categories of the built-in taxonomy.
const (
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryShopping      = "shopping"
	CategoryEntertainment = "entertainment"
	CategoryBills         = "bills"
	CategoryTravel        = "travel"
	CategoryOther         = "other"
)

// Sources a raw transaction may come from.
const (
	SourceFile   SourceKind = "file"
	SourceSQLite SourceKind = "sqlite"
	SourceSheets SourceKind = "sheets"
	SourcePlaid  SourceKind = "plaid"
)

type (
	// SourceKind names the provider that produced a batch of raw records.
	SourceKind string

	// RawTransaction is an untyped record as decoded from a source document.
	// Field names and sign conventions vary by source.
	RawTransaction map[string]any

	// Transaction is the canonical shape every raw record is normalized into.
	// Empty ID, AccountID and Date mean "absent" and serialise as null.
	Transaction struct {
		ID           string
		AccountID    string
		Amount       decimal.Decimal // always >= 0
		MerchantName string
		Category     []string // exactly one canonical category
		Date         string
	}

	// BudgetMap maps a category name to its monthly ceiling.
	BudgetMap map[string]decimal.Decimal
)

var (
	ErrMissingData    = errors.New("missing data")
	ErrInvalidRecord  = errors.New("invalid transaction record")
	ErrInvalidBudgets = errors.New("invalid budgets")
)

// MissingDataError reports that a collaborator could not locate required input.
type MissingDataError struct {
	Resource string // "transactions", "budgets", "access token"
	Source   SourceKind
	Err      error
}

func (e *MissingDataError) Error() string {
	msg := fmt.Sprintf("%s not found", e.Resource)
	if e.Source != "" {
		msg += " in " + string(e.Source) + " source"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingDataError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingData}
	}
	return []error{ErrMissingData, e.Err}
}

// NewMissingData builds a MissingDataError.
func NewMissingData(resource string, source SourceKind, err error) *MissingDataError {
	return &MissingDataError{Resource: resource, Source: source, Err: err}
}

// InvalidRecordError describes a raw record that could not be normalized.
type InvalidRecordError struct {
	Index  int
	Source SourceKind
	Field  string
	Err    error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("record %d from %s: field %q: %v", e.Index, e.Source, e.Field, e.Err)
}

func (e *InvalidRecordError) Unwrap() []error {
	return []error{ErrInvalidRecord, e.Err}
}

// PrimaryCategory returns the single canonical category of the transaction.
func (t Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 {
		return CategoryOther
	}
	return t.Category[0]
}

type transactionJSON struct {
	ID           *string     `json:"transaction_id"`
	AccountID    *string     `json:"account_id"`
	Amount       json.Number `json:"amount"`
	MerchantName string      `json:"merchant_name"`
	Category     []string    `json:"category"`
	Date         *string     `json:"date"`
}

// MarshalJSON writes the amount as a JSON number and absent fields as null.
func (t Transaction) MarshalJSON() ([]byte, error) {
	category := t.Category
	if category == nil {
		category = []string{CategoryOther}
	}
	return json.Marshal(transactionJSON{
		ID:           nullable(t.ID),
		AccountID:    nullable(t.AccountID),
		Amount:       json.Number(t.Amount.StringFixed(2)),
		MerchantName: t.MerchantName,
		Category:     category,
		Date:         nullable(t.Date),
	})
}

// Raw converts a normalized transaction back into a raw record, so snapshots
// written after a sync can be read back through the normalizer.
func (t Transaction) Raw() RawTransaction {
	raw := RawTransaction{
		"amount":        json.Number(t.Amount.StringFixed(2)),
		"merchant_name": t.MerchantName,
		"category":      append([]string(nil), t.Category...),
	}
	if t.ID != "" {
		raw["transaction_id"] = t.ID
	}
	if t.AccountID != "" {
		raw["account_id"] = t.AccountID
	}
	if t.Date != "" {
		raw["date"] = t.Date
	}
	return raw
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// For returns the budget of a category: exact key first, then a
// case-insensitive match, else zero.
func (b BudgetMap) For(category string) decimal.Decimal {
	if v, ok := b[category]; ok {
		return v
	}
	for k, v := range b {
		if strings.EqualFold(k, category) {
			return v
		}
	}
	return decimal.Zero
}

// Validate rejects negative ceilings.
func (b BudgetMap) Validate() error {
	for _, k := range b.Categories() {
		if b[k].IsNegative() {
			return fmt.Errorf("%w: budget for %q is negative", ErrInvalidBudgets, k)
		}
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: empty category name", ErrInvalidBudgets)
		}
	}
	return nil
}

// Categories returns the budgeted categories in lexical order.
func (b BudgetMap) Categories() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes ceilings as JSON numbers.
func (b BudgetMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(b))
	for k, v := range b {
		out[k] = json.Number(v.String())
	}
	return json.Marshal(out)
}

// ParseBudgets builds a BudgetMap from a decoded JSON value. Anything other
// than an object of non-negative numbers is rejected with ErrInvalidBudgets.
func ParseBudgets(v any) (BudgetMap, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object of category to amount, got %T", ErrInvalidBudgets, v)
	}
	budgets := make(BudgetMap, len(obj))
	for k, raw := range obj {
		amount, present, err := ParseAmount(raw)
		if err != nil || !present {
			return nil, fmt.Errorf("%w: budget for %q is not a number", ErrInvalidBudgets, k)
		}
		budgets[k] = amount
	}
	if err := budgets.Validate(); err != nil {
		return nil, err
	}
	return budgets, nil
}
