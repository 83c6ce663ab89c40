package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownMerchant is used when a record carries no merchant or name.
const UnknownMerchant = "Unknown"

// Batch is the result of normalizing a sequence of raw records.
type Batch struct {
	Transactions []Transaction
	Dropped      []*InvalidRecordError
}

// DroppedCount returns how many records were skipped.
func (b Batch) DroppedCount() int {
	return len(b.Dropped)
}

// Normalize converts one raw record into the canonical transaction shape.
//
// Amounts are taken as absolute values regardless of the source's sign
// convention. Missing fields fall back to defaults; the only failure is an
// amount that is present but not numeric.
func Normalize(raw RawTransaction, source SourceKind, tax Taxonomy) (Transaction, error) {
	amount, _, err := ParseAmount(raw["amount"])
	if err != nil {
		return Transaction{}, &InvalidRecordError{Source: source, Field: "amount", Err: err}
	}

	merchant := firstString(raw, "merchant_name", "name")
	tags := sourceCategories(raw)
	category := tax.Map(merchant, tags)
	if merchant == "" {
		merchant = UnknownMerchant
	}

	return Transaction{
		ID:           firstString(raw, "transaction_id", "id"),
		AccountID:    firstString(raw, "account_id"),
		Amount:       amount.Abs(),
		MerchantName: merchant,
		Category:     []string{category},
		Date:         firstDate(raw, "date", "authorized_date"),
	}, nil
}

// NormalizeAll normalizes every record, skipping and recording the ones that
// cannot be coerced. Surviving records keep their input order.
func NormalizeAll(raws []RawTransaction, source SourceKind, tax Taxonomy) Batch {
	batch := Batch{Transactions: make([]Transaction, 0, len(raws))}
	for i, raw := range raws {
		tx, err := Normalize(raw, source, tax)
		if err != nil {
			ire, ok := err.(*InvalidRecordError)
			if !ok {
				ire = &InvalidRecordError{Source: source, Err: err}
			}
			ire.Index = i
			batch.Dropped = append(batch.Dropped, ire)
			continue
		}
		batch.Transactions = append(batch.Transactions, tx)
	}
	return batch
}

// firstString returns the first non-empty value among keys, rendering
// numeric identifiers as strings.
func firstString(raw RawTransaction, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// firstDate passes a date string through verbatim.
func firstDate(raw RawTransaction, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// sourceCategories collects the tags a source attached to the record:
// the legacy "category" list (or a single string), then the primary and
// detailed personal finance category.
func sourceCategories(raw RawTransaction) []string {
	var tags []string
	switch v := raw["category"].(type) {
	case []string:
		tags = append(tags, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
	case string:
		if v != "" {
			tags = append(tags, v)
		}
	}
	if len(tags) > 0 {
		return tags
	}

	if pfc, ok := raw["personal_finance_category"].(map[string]any); ok {
		for _, k := range []string{"primary", "detailed"} {
			if s, ok := pfc[k].(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}
