package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"finquest/internal/core"
)

func TestBudgetService_GetDefaults(t *testing.T) {
	svc := NewBudgetService(&fakeBudgets{}, core.DefaultTaxonomy(), nil)

	budgets, defaults, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !defaults {
		t.Fatal("expected defaults flag")
	}
	for _, c := range core.DefaultTaxonomy().Categories() {
		v, ok := budgets[c]
		if !ok || !v.IsZero() {
			t.Errorf("expected zero default for %s, got %v", c, v)
		}
	}
}

func TestBudgetService_GetStored(t *testing.T) {
	stored := core.BudgetMap{"food": decimal.NewFromInt(300)}
	svc := NewBudgetService(&fakeBudgets{budgets: stored}, core.Taxonomy{}, nil)

	budgets, defaults, err := svc.Get(context.Background())
	if err != nil || defaults {
		t.Fatalf("unexpected result: %v defaults=%v", err, defaults)
	}
	if !budgets["food"].Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected budgets %v", budgets)
	}
}

func TestBudgetService_GetPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewBudgetService(&fakeBudgets{readErr: boom}, core.Taxonomy{}, nil)
	if _, _, err := svc.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if err := svc.Ready(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error from Ready, got %v", err)
	}
}

func TestBudgetService_Save(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		want    core.BudgetMap
		wantErr bool
	}{
		{
			name: "keys are lower-cased",
			body: map[string]any{"Food": 300.0, " Transport ": 150},
			want: core.BudgetMap{"food": decimal.NewFromInt(300), "transport": decimal.NewFromInt(150)},
		},
		{name: "negative", body: map[string]any{"food": -1.0}, wantErr: true},
		{name: "not a number", body: map[string]any{"food": "lots"}, wantErr: true},
		{name: "not an object", body: []any{1.0}, wantErr: true},
		{name: "keys fold to the same category", body: map[string]any{"Food": 10.0, "food": 99.0}, wantErr: true},
		{name: "keys differ only by spaces", body: map[string]any{"food": 10.0, " food": 10.0}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBudgets{}
			changed := 0
			svc := NewBudgetService(store, core.Taxonomy{}, nil, func() { changed++ })

			got, err := svc.Save(context.Background(), tt.body)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidBudgets) {
					t.Fatalf("expected ErrInvalidBudgets, got %v", err)
				}
				if store.writes != 0 || changed != 0 {
					t.Fatal("invalid budgets must not be written")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if !got[k].Equal(v) {
					t.Fatalf("%s: got %s, want %s", k, got[k], v)
				}
			}
			if store.writes != 1 || changed != 1 {
				t.Fatalf("expected one write and one change callback, got %d/%d", store.writes, changed)
			}
		})
	}
}
