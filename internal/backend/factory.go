package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"finquest/internal/log"
	"finquest/internal/sources"
	"finquest/internal/sources/file"
	"finquest/internal/sources/plaid"
	"finquest/internal/sources/sheets"
	"finquest/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case FileBackend:
		result = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := f.attachLiveSource(result, config); err != nil {
		_ = result.Close()
		return nil, err
	}
	return result, nil
}

func (f *DefaultFactory) createFileBackend(config Config) *BackendResult {
	store := file.New(config.DataDirectory)

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Backend: store,
		Tokens:  store,
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Tokens:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.New(ctx, config.Sheets, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"budgets_sheet", config.Sheets.BudgetsSheet,
		"transactions_sheet", config.Sheets.TransactionsSheet)

	// The access token is a secret and stays out of the spreadsheet.
	return &BackendResult{
		Backend: cli,
		Tokens:  file.New(config.DataDirectory),
	}, nil
}

func (f *DefaultFactory) attachLiveSource(result *BackendResult, config Config) error {
	client, err := plaid.New(config.Plaid, result.Tokens, f.logger)
	if errors.Is(err, sources.ErrNotConfigured) {
		f.logger.Info("Plaid not configured, live source disabled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to initialize Plaid client: %w", err)
	}

	cachePath := filepath.Join(config.DataDirectory, file.CacheFile)
	result.Plaid = client
	result.LiveSource = file.NewCachedSource(client, cachePath, config.CacheTTL, f.logger)

	f.logger.Info("Initialized Plaid live source",
		"environment", config.Plaid.Environment,
		"cache_file", cachePath,
		"cache_ttl", config.CacheTTL.String())
	return nil
}
