package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

// BudgetService reads and replaces the monthly ceilings.
type BudgetService struct {
	store    sources.BudgetStore
	taxonomy core.Taxonomy
	onChange []func()
	logger   *log.Logger
}

func NewBudgetService(store sources.BudgetStore, taxonomy core.Taxonomy, logger *log.Logger, onChange ...func()) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	if len(taxonomy.Rules) == 0 {
		taxonomy = core.DefaultTaxonomy()
	}
	return &BudgetService{
		store:    store,
		taxonomy: taxonomy,
		onChange: onChange,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// Get returns the stored budgets. When none are stored yet it returns a zero
// budget for every taxonomy category and defaults=true.
func (s *BudgetService) Get(ctx context.Context) (budgets core.BudgetMap, defaults bool, err error) {
	budgets, err = s.store.ReadBudgets(ctx)
	if errors.Is(err, core.ErrMissingData) {
		s.logger.InfoContext(ctx, "No budgets stored, returning defaults")
		return s.Defaults(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return budgets, false, nil
}

// Defaults returns a zero ceiling per taxonomy category.
func (s *BudgetService) Defaults() core.BudgetMap {
	out := make(core.BudgetMap)
	for _, c := range s.taxonomy.Categories() {
		out[c] = decimal.Zero
	}
	return out
}

// Save validates a decoded request body, lower-cases its keys and replaces
// the stored budgets with it. Keys that fold to the same category are
// rejected.
func (s *BudgetService) Save(ctx context.Context, body any) (core.BudgetMap, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object of category to amount", core.ErrInvalidBudgets)
	}
	lowered := make(map[string]any, len(obj))
	for k, v := range obj {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, dup := lowered[key]; dup {
			return nil, fmt.Errorf("%w: category %q given more than once", core.ErrInvalidBudgets, key)
		}
		lowered[key] = v
	}
	budgets, err := core.ParseBudgets(lowered)
	if err != nil {
		return nil, err
	}

	if err := s.store.WriteBudgets(ctx, budgets); err != nil {
		return nil, fmt.Errorf("save budgets: %w", err)
	}
	for _, fn := range s.onChange {
		fn()
	}

	s.logger.InfoContext(ctx, "Budgets saved",
		log.FieldOperation, log.OpWrite,
		log.FieldCategories, len(budgets))
	return budgets, nil
}

// Ready checks that the budget store answers. Missing budgets still count
// as ready.
func (s *BudgetService) Ready(ctx context.Context) error {
	_, err := s.store.ReadBudgets(ctx)
	if err != nil && !errors.Is(err, core.ErrMissingData) {
		return err
	}
	return nil
}
