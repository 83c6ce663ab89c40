package core

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestMissingDataError(t *testing.T) {
	err := error(NewMissingData("budgets", SourceFile, fs.ErrNotExist))
	if !errors.Is(err, ErrMissingData) {
		t.Fatalf("expected ErrMissingData")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped fs.ErrNotExist")
	}
	var mde *MissingDataError
	if !errors.As(err, &mde) || mde.Resource != "budgets" {
		t.Fatalf("expected MissingDataError for budgets, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "budgets not found in file source") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(NewMissingData("access token", "", nil), ErrMissingData) {
		t.Fatalf("nil cause must still match ErrMissingData")
	}
}

func TestParseBudgets(t *testing.T) {
	decode := func(s string) any {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			t.Fatalf("decode %s: %v", s, err)
		}
		return v
	}
	got, err := ParseBudgets(decode(`{"food": 100, "transport": 50.5, "savings": "200"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.For("transport").Equal(d("50.5")) || !got.For("savings").Equal(d("200")) {
		t.Fatalf("unexpected budgets %v", got)
	}

	for _, doc := range []string{`[1,2]`, `"food"`, `{"food": -1}`, `{"food": "lots"}`, `{"food": null}`, `{"": 5}`} {
		if _, err := ParseBudgets(decode(doc)); !errors.Is(err, ErrInvalidBudgets) {
			t.Fatalf("%s: expected ErrInvalidBudgets, got %v", doc, err)
		}
	}
}

func TestBudgetMap_For(t *testing.T) {
	b := BudgetMap{"Food": d("100"), "food": d("90")}
	if !b.For("food").Equal(d("90")) {
		t.Fatalf("exact key must win")
	}
	if !b.For("FOOD").IsPositive() {
		t.Fatalf("expected case-insensitive match")
	}
	if !b.For("travel").IsZero() {
		t.Fatalf("missing category must be zero")
	}
}

func TestTransaction_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Transaction{Amount: d("45"), MerchantName: "Starbucks", Category: []string{CategoryFood}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"transaction_id":null,"account_id":null,"amount":45.00,"merchant_name":"Starbucks","category":["food"],"date":null}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}

	b, _ = json.Marshal(Transaction{ID: "t1", AccountID: "a1", Amount: d("1.5"), MerchantName: "Uber", Date: "2025-06-01"})
	if !strings.Contains(string(b), `"transaction_id":"t1"`) || !strings.Contains(string(b), `"category":["other"]`) {
		t.Fatalf("unexpected %s", b)
	}
}
