package plaid

import (
	"encoding/json"
	"time"

	plaidapi "github.com/plaid/plaid-go/v29/plaid"
	"github.com/shopspring/decimal"

	"finquest/internal/core"
)

// record is the subset of a Plaid transaction the pipeline reads.
type record struct {
	ID             string
	AccountID      string
	Amount         float64
	MerchantName   string
	Name           string
	Category       []string
	Date           string
	AuthorizedDate string
	PFCPrimary     string
	PFCDetailed    string
}

func fromPlaid(t plaidapi.Transaction) record {
	pfc := t.GetPersonalFinanceCategory()
	return record{
		ID:             t.GetTransactionId(),
		AccountID:      t.GetAccountId(),
		Amount:         t.GetAmount(),
		MerchantName:   t.GetMerchantName(),
		Name:           t.GetName(),
		Category:       t.GetCategory(),
		Date:           t.GetDate(),
		AuthorizedDate: t.GetAuthorizedDate(),
		PFCPrimary:     pfc.GetPrimary(),
		PFCDetailed:    pfc.GetDetailed(),
	}
}

// raw renders the record with Plaid's field names. Plaid reports outflows
// as positive amounts; the sign is kept and the normalizer takes the
// absolute value.
func (r record) raw() core.RawTransaction {
	raw := core.RawTransaction{
		"transaction_id": r.ID,
		"account_id":     r.AccountID,
		"amount":         json.Number(decimal.NewFromFloat(r.Amount).String()),
		"name":           r.Name,
		"date":           r.Date,
	}
	if r.MerchantName != "" {
		raw["merchant_name"] = r.MerchantName
	}
	if r.AuthorizedDate != "" {
		raw["authorized_date"] = r.AuthorizedDate
	}
	if len(r.Category) > 0 {
		raw["category"] = append([]string(nil), r.Category...)
	}
	if r.PFCPrimary != "" || r.PFCDetailed != "" {
		raw["personal_finance_category"] = map[string]any{
			"primary":  r.PFCPrimary,
			"detailed": r.PFCDetailed,
		}
	}
	return raw
}

// dateWindow returns the inclusive [today-days, today] range as Plaid dates.
func dateWindow(now time.Time, days int) (start, end string) {
	const layout = "2006-01-02"
	return now.AddDate(0, 0, -days).Format(layout), now.Format(layout)
}
