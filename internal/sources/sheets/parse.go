package sheets

import (
	"fmt"
	"strings"

	"finquest/internal/core"
)

var (
	budgetHeader      = []any{"Category", "Budget"}
	transactionHeader = []any{"Transaction ID", "Account ID", "Date", "Merchant", "Amount", "Category"}
)

// parseTransactions converts a values matrix whose first row is the
// transactions header into raw records. Cell values are passed through so
// the normalizer decides what is a valid amount.
func parseTransactions(rows [][]any) ([]core.RawTransaction, error) {
	headers := toStrings(rows[0])
	col := map[string]int{}
	for _, h := range transactionHeader {
		col[h.(string)] = indexOf(headers, h.(string))
	}
	if col["Amount"] == -1 {
		return nil, fmt.Errorf("unexpected transactions header: missing Amount; got headers=%v", headers)
	}

	out := make([]core.RawTransaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		raw := core.RawTransaction{}
		set := func(key, header string) {
			v := cell(row, col[header])
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
				if v == "" {
					return
				}
			}
			if v != nil {
				raw[key] = v
			}
		}
		set("transaction_id", "Transaction ID")
		set("account_id", "Account ID")
		set("date", "Date")
		set("merchant_name", "Merchant")
		set("amount", "Amount")
		set("category", "Category")
		out = append(out, raw)
	}
	return out, nil
}

// parseBudgets reads Category | Budget rows. Rows without a category are
// skipped; a budget that is missing, not numeric or negative rejects the
// whole sheet.
func parseBudgets(rows [][]any) (core.BudgetMap, error) {
	headers := toStrings(rows[0])
	colCat, colBudget := indexOf(headers, "Category"), indexOf(headers, "Budget")
	if colCat == -1 || colBudget == -1 {
		return nil, fmt.Errorf("%w: unexpected budgets header; got headers=%v", core.ErrInvalidBudgets, headers)
	}

	budgets := core.BudgetMap{}
	for i, row := range rows[1:] {
		category := strings.TrimSpace(fmt.Sprint(valueOrEmpty(cell(row, colCat))))
		if category == "" {
			continue
		}
		amount, present, err := core.ParseAmount(cell(row, colBudget))
		if err != nil || !present {
			return nil, fmt.Errorf("%w: row %d: budget for %q is not a number", core.ErrInvalidBudgets, i+2, category)
		}
		budgets[category] = amount
	}
	if err := budgets.Validate(); err != nil {
		return nil, err
	}
	return budgets, nil
}

func budgetRows(budgets core.BudgetMap) [][]any {
	rows := [][]any{budgetHeader}
	for _, k := range budgets.Categories() {
		rows = append(rows, []any{k, budgets[k].InexactFloat64()})
	}
	return rows
}

func transactionRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, transactionHeader)
	for _, t := range txs {
		rows = append(rows, []any{t.ID, t.AccountID, t.Date, t.MerchantName, t.Amount.Round(2).InexactFloat64(), t.PrimaryCategory()})
	}
	return rows
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func blank(row []any) bool {
	for _, v := range row {
		if strings.TrimSpace(fmt.Sprint(valueOrEmpty(v))) != "" {
			return false
		}
	}
	return true
}
