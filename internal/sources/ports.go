// Package sources declares the ports the forecast pipeline's collaborators
// implement: where raw transactions come from, where budgets and snapshots
// live, and where the aggregator access token is kept.
package sources

import (
	"context"
	"errors"

	"finquest/internal/core"
)

// ErrNotConfigured is returned when a live source is requested but its
// credentials are absent.
var ErrNotConfigured = errors.New("live transaction source not configured")

// Ports for outbound adapters.
type (
	TransactionSource interface {
		// FetchTransactions returns raw records in source order. A missing
		// snapshot is reported as *core.MissingDataError.
		FetchTransactions(ctx context.Context) ([]core.RawTransaction, error)
		Kind() core.SourceKind
	}

	BudgetReader interface {
		ReadBudgets(ctx context.Context) (core.BudgetMap, error)
	}

	BudgetWriter interface {
		WriteBudgets(ctx context.Context, budgets core.BudgetMap) error
	}

	BudgetStore interface {
		BudgetReader
		BudgetWriter
	}

	// SnapshotWriter replaces the locally stored transactions with the
	// result of a sync.
	SnapshotWriter interface {
		ReplaceTransactions(ctx context.Context, txs []core.Transaction) error
	}

	TokenStore interface {
		LoadAccessToken(ctx context.Context) (string, error)
		SaveAccessToken(ctx context.Context, token, itemID string) error
	}
)

// Static returns a TransactionSource over a fixed slice. Used by the CLI for
// piped input and by tests.
func Static(kind core.SourceKind, raws []core.RawTransaction) TransactionSource {
	return staticSource{kind: kind, raws: raws}
}

type staticSource struct {
	kind core.SourceKind
	raws []core.RawTransaction
}

func (s staticSource) FetchTransactions(context.Context) ([]core.RawTransaction, error) {
	return s.raws, nil
}

func (s staticSource) Kind() core.SourceKind { return s.kind }
