// Package file stores budgets, the transaction snapshot and the aggregator
// access token as plain files under one data directory.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finquest/internal/core"
	"finquest/internal/sources"
)

const (
	TransactionsFile = "mock_transactions.json"
	BudgetsFile      = "mock_budgets.json"
	AccessTokenFile  = "access_token.txt"
	CacheFile        = "transactions_cache.json"
)

type Store struct {
	mu  sync.RWMutex
	dir string
}

// Ensure interface conformance
var (
	_ sources.TransactionSource = (*Store)(nil)
	_ sources.BudgetStore       = (*Store)(nil)
	_ sources.SnapshotWriter    = (*Store)(nil)
	_ sources.TokenStore        = (*Store)(nil)
)

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) Kind() core.SourceKind { return core.SourceFile }

// FetchTransactions reads the "transactions" array of the snapshot file.
func (s *Store) FetchTransactions(_ context.Context) ([]core.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raws, err := readTransactions(filepath.Join(s.dir, TransactionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewMissingData("transactions", core.SourceFile, err)
	}
	return raws, err
}

// ReplaceTransactions overwrites the snapshot file.
func (s *Store) ReplaceTransactions(_ context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.dir, TransactionsFile), map[string]any{"transactions": txs})
}

// ReadBudgets reads the "budgets" object of the budgets file.
func (s *Store) ReadBudgets(_ context.Context) (core.BudgetMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.dir, BudgetsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewMissingData("budgets", core.SourceFile, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc map[string]any
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidBudgets, path, err)
	}
	return core.ParseBudgets(doc["budgets"])
}

// WriteBudgets overwrites the budgets file.
func (s *Store) WriteBudgets(_ context.Context, budgets core.BudgetMap) error {
	if err := budgets.Validate(); err != nil {
		return err
	}
	if budgets == nil {
		budgets = core.BudgetMap{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.dir, BudgetsFile), map[string]any{"budgets": budgets})
}

// LoadAccessToken reads the stored aggregator access token.
func (s *Store) LoadAccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, AccessTokenFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", core.NewMissingData("access token", core.SourceFile, err)
	}
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", core.NewMissingData("access token", core.SourceFile, nil)
	}
	return token, nil
}

// SaveAccessToken stores the token. The item id is not kept by this store.
func (s *Store) SaveAccessToken(_ context.Context, token, _ string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty access token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(filepath.Join(s.dir, AccessTokenFile), []byte(token+"\n"), 0o600)
}

func readTransactions(path string) ([]core.RawTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Transactions []core.RawTransaction `json:"transactions"`
	}
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Transactions == nil {
		return []core.RawTransaction{}, nil
	}
	return doc.Transactions, nil
}

// decode keeps numbers as json.Number so amounts reach the normalizer
// without a float round trip.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'), 0o644)
}

// writeFile replaces path atomically through a temp file in the same directory.
func writeFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
