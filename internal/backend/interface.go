package backend

import (
	"context"

	"finquest/internal/sources"
	"finquest/internal/sources/plaid"
)

// Backend is the local store the services read budgets and the transaction
// snapshot from, and write syncs to.
type Backend interface {
	sources.TransactionSource
	sources.BudgetStore
	sources.SnapshotWriter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the credential store, the
// optional live source and a cleanup function.
type BackendResult struct {
	Backend Backend
	Tokens  sources.TokenStore

	// Plaid is nil when no Plaid credentials are configured. LiveSource
	// wraps it with the transactions cache file.
	Plaid      *plaid.Client
	LiveSource sources.TransactionSource

	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
