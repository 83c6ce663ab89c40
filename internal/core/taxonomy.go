package core

import (
	"errors"
	"fmt"
	"strings"
)

// CategoryRule associates a canonical category with the merchants that
// belong to it and the keywords that identify it inside source tags.
type CategoryRule struct {
	Name      string
	Merchants []string
	Keywords  []string
}

// Taxonomy is an ordered set of category rules. Earlier rules win ties.
type Taxonomy struct {
	Rules    []CategoryRule
	Fallback string
}

// DefaultTaxonomy returns the built-in merchant and keyword tables.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Rules: []CategoryRule{
			{Name: CategoryFood, Merchants: []string{"McDonald's", "Starbucks", "KFC", "Zomato"}, Keywords: []string{"food"}},
			{Name: CategoryTransport, Merchants: []string{"Uber", "Lyft", "ADNOC Fuel"}, Keywords: []string{"transport"}},
			{Name: CategoryShopping, Merchants: []string{"Amazon", "Walmart", "Target", "Carrefour"}, Keywords: []string{"shop"}},
			{Name: CategoryEntertainment, Merchants: []string{"Netflix", "Spotify", "Cinema"}, Keywords: []string{"entertain"}},
			{Name: CategoryBills, Merchants: []string{"AT&T", "Verizon", "Electricity", "Water"}, Keywords: []string{"bill", "utility"}},
			{Name: CategoryTravel, Merchants: []string{"United Airlines", "Delta", "Airbnb", "Emirates Airlines"}, Keywords: []string{"travel"}},
		},
		Fallback: CategoryOther,
	}
}

// Validate checks that rule names are present and unique.
func (t Taxonomy) Validate() error {
	if len(t.Rules) == 0 {
		return errors.New("taxonomy has no categories")
	}
	seen := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		name := strings.ToLower(strings.TrimSpace(r.Name))
		if name == "" {
			return fmt.Errorf("taxonomy rule %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("taxonomy category %q declared twice", r.Name)
		}
		seen[name] = true
	}
	return nil
}

// Categories lists the canonical category names in declaration order,
// without the fallback.
func (t Taxonomy) Categories() []string {
	out := make([]string, 0, len(t.Rules))
	for _, r := range t.Rules {
		out = append(out, r.Name)
	}
	return out
}

func (t Taxonomy) fallback() string {
	if t.Fallback == "" {
		return CategoryOther
	}
	return t.Fallback
}

// Map assigns exactly one category to a transaction.
//
// The merchant is matched exactly (ignoring case) against each rule's
// merchant list in order. When that fails, every source tag is scanned in
// order and the first rule having a keyword contained in the tag wins.
// Unmatched input maps to the fallback category.
func (t Taxonomy) Map(merchant string, sourceCategories []string) string {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" && len(sourceCategories) == 0 {
		return t.fallback()
	}

	if merchant != "" {
		for _, r := range t.Rules {
			for _, m := range r.Merchants {
				if strings.EqualFold(merchant, m) {
					return r.Name
				}
			}
		}
	}

	for _, tag := range sourceCategories {
		tag = strings.ToLower(tag)
		if tag == "" {
			continue
		}
		for _, r := range t.Rules {
			for _, kw := range r.Keywords {
				if kw != "" && strings.Contains(tag, strings.ToLower(kw)) {
					return r.Name
				}
			}
		}
	}

	return t.fallback()
}
