package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"finquest/internal/amqp"
	"finquest/internal/core"
	"finquest/internal/sources/plaid"
)

type fakeSource struct {
	kind  core.SourceKind
	raws  []core.RawTransaction
	err   error
	calls atomic.Int32
}

func (f *fakeSource) FetchTransactions(context.Context) ([]core.RawTransaction, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

func (f *fakeSource) Kind() core.SourceKind { return f.kind }

type fakeBudgets struct {
	mu      sync.Mutex
	budgets core.BudgetMap
	readErr error
	writes  int
}

func (f *fakeBudgets) ReadBudgets(context.Context) (core.BudgetMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.budgets == nil {
		return nil, core.NewMissingData("budgets", core.SourceFile, nil)
	}
	return f.budgets, nil
}

func (f *fakeBudgets) WriteBudgets(_ context.Context, b core.BudgetMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budgets = b
	f.writes++
	return nil
}

type fakeSnapshot struct {
	txs      []core.Transaction
	replaced int
	err      error
}

func (f *fakeSnapshot) ReplaceTransactions(_ context.Context, txs []core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.txs = txs
	f.replaced++
	return nil
}

type fakePublisher struct {
	published []*amqp.SyncRequest
	err       error
}

func (f *fakePublisher) PublishSyncRequest(_ context.Context, req *amqp.SyncRequest) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, req)
	return nil
}

type fakeLinker struct {
	exchanged []string
	sandbox   string
}

func (f *fakeLinker) CreateLinkToken(context.Context) (plaid.LinkToken, error) {
	return plaid.LinkToken{Token: "link-sandbox-123"}, nil
}

func (f *fakeLinker) ExchangePublicToken(_ context.Context, publicToken string) (string, error) {
	if publicToken == "bad" {
		return "", errors.New("INVALID_PUBLIC_TOKEN")
	}
	f.exchanged = append(f.exchanged, publicToken)
	return "item-" + publicToken, nil
}

func (f *fakeLinker) CreateSandboxPublicToken(_ context.Context, institutionID string) (string, error) {
	f.sandbox = institutionID
	return "public-sandbox", nil
}
