package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finquest/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "finquest.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_EmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.FetchTransactions(ctx); !errors.Is(err, core.ErrMissingData) {
		t.Fatalf("transactions: expected ErrMissingData, got %v", err)
	}
	if _, err := repo.ReadBudgets(ctx); !errors.Is(err, core.ErrMissingData) {
		t.Fatalf("budgets: expected ErrMissingData, got %v", err)
	}
	if _, err := repo.LoadAccessToken(ctx); !errors.Is(err, core.ErrMissingData) {
		t.Fatalf("token: expected ErrMissingData, got %v", err)
	}
	if _, _, ok, err := repo.LastSync(ctx); ok || err != nil {
		t.Fatalf("expected no sync yet, got ok=%v err=%v", ok, err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finquest.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path, nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestRepository_Budgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := core.BudgetMap{"food": decimal.RequireFromString("100.50"), "transport": decimal.NewFromInt(50)}
	if err := repo.WriteBudgets(ctx, first); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := core.BudgetMap{"food": decimal.NewFromInt(80)}
	if err := repo.WriteBudgets(ctx, second); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err := repo.ReadBudgets(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || !got["food"].Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected budgets to be replaced, got %v", got)
	}

	if err := repo.WriteBudgets(ctx, core.BudgetMap{"food": decimal.NewFromInt(-1)}); !errors.Is(err, core.ErrInvalidBudgets) {
		t.Fatalf("expected ErrInvalidBudgets, got %v", err)
	}
}

func TestRepository_Snapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	synced := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return synced }

	txs := []core.Transaction{
		{ID: "t1", AccountID: "a1", Amount: decimal.RequireFromString("45"), MerchantName: "Starbucks", Category: []string{core.CategoryFood}, Date: "2025-06-01"},
		{ID: "t2", Amount: decimal.RequireFromString("120.1"), MerchantName: "Uber", Category: []string{core.CategoryTransport}, Date: "2025-06-02"},
	}
	if err := repo.ReplaceTransactions(ctx, txs); err != nil {
		t.Fatalf("replace: %v", err)
	}
	raws, err := repo.FetchTransactions(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	batch := core.NormalizeAll(raws, repo.Kind(), core.DefaultTaxonomy())
	if len(batch.Transactions) != 2 || batch.Transactions[1].ID != "t2" || !batch.Transactions[1].Amount.Equal(decimal.RequireFromString("120.1")) {
		t.Fatalf("unexpected snapshot %+v", batch.Transactions)
	}

	at, count, ok, err := repo.LastSync(ctx)
	if err != nil || !ok || count != 2 || !at.Equal(synced) {
		t.Fatalf("last sync: %v %d %v %v", at, count, ok, err)
	}

	if err := repo.ReplaceTransactions(ctx, nil); err != nil {
		t.Fatalf("replace with empty: %v", err)
	}
	raws, err = repo.FetchTransactions(ctx)
	if err != nil || len(raws) != 0 {
		t.Fatalf("expected an empty snapshot, got %v %v", raws, err)
	}
}

func TestRepository_AccessToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.SaveAccessToken(ctx, "access-1", "item-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveAccessToken(ctx, "access-2", "item-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.LoadAccessToken(ctx)
	if err != nil || got != "access-2" {
		t.Fatalf("load: %q %v", got, err)
	}
	if err := repo.SaveAccessToken(ctx, "", "item"); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
