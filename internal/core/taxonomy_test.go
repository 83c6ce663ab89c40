package core

import (
	"strings"
	"testing"
)

func TestMap_KnownMerchantsAnyCase(t *testing.T) {
	tax := DefaultTaxonomy()
	for _, rule := range tax.Rules {
		for _, m := range rule.Merchants {
			for _, variant := range []string{m, strings.ToUpper(m), strings.ToLower(m)} {
				if got := tax.Map(variant, nil); got != rule.Name {
					t.Fatalf("merchant %q: expected %s, got %s", variant, rule.Name, got)
				}
			}
		}
	}
}

func TestMap(t *testing.T) {
	tax := DefaultTaxonomy()
	tests := []struct {
		name     string
		merchant string
		tags     []string
		want     string
	}{
		{name: "nothing", want: CategoryOther},
		{name: "blank merchant no tags", merchant: "   ", tags: []string{}, want: CategoryOther},
		{name: "keyword fallback", merchant: "Unknown Shop LLC", tags: []string{"Shops"}, want: CategoryShopping},
		{name: "unmatched merchant no tags", merchant: "Corner Bakery", want: CategoryOther},
		{name: "merchant beats tags", merchant: "Uber", tags: []string{"Food and Drink"}, want: CategoryTransport},
		{name: "first tag wins", tags: []string{"Travel", "Food and Drink"}, want: CategoryTravel},
		{name: "earlier rule wins within a tag", tags: []string{"food shop"}, want: CategoryFood},
		{name: "utility keyword", tags: []string{"Utility"}, want: CategoryBills},
		{name: "bill keyword", tags: []string{"Service", "Bills and Payments"}, want: CategoryBills},
		{name: "entertain keyword", tags: []string{"Recreation", "Entertainment"}, want: CategoryEntertainment},
		{name: "no keyword in tags", tags: []string{"Payment", "Transfer"}, want: CategoryOther},
		{name: "merchant substring is not a match", merchant: "Uber Eats", want: CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tax.Map(tt.merchant, tt.tags); got != tt.want {
				t.Fatalf("Map(%q, %v) = %s, want %s", tt.merchant, tt.tags, got, tt.want)
			}
		})
	}
}

func TestMap_CustomFallback(t *testing.T) {
	tax := Taxonomy{
		Rules:    []CategoryRule{{Name: "groceries", Keywords: []string{"grocer"}}},
		Fallback: "misc",
	}
	if got := tax.Map("", []string{"Groceries"}); got != "groceries" {
		t.Fatalf("expected groceries, got %s", got)
	}
	if got := tax.Map("", nil); got != "misc" {
		t.Fatalf("expected misc, got %s", got)
	}
}

func TestTaxonomyValidate(t *testing.T) {
	if err := DefaultTaxonomy().Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}
	bad := []Taxonomy{
		{},
		{Rules: []CategoryRule{{Name: ""}}},
		{Rules: []CategoryRule{{Name: "food"}, {Name: "Food"}}},
	}
	for i, tax := range bad {
		if err := tax.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
