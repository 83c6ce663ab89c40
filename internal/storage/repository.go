package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

// SQLiteRepository keeps budgets, the latest transaction snapshot and the
// aggregator credentials in one SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
	logger  *log.Logger
}

// Ensure interface conformance
var (
	_ sources.TransactionSource = (*SQLiteRepository)(nil)
	_ sources.BudgetStore       = (*SQLiteRepository)(nil)
	_ sources.SnapshotWriter    = (*SQLiteRepository)(nil)
	_ sources.TokenStore        = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Kind() core.SourceKind { return core.SourceSQLite }

// FetchTransactions returns the snapshot written by the last sync.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	if _, err := r.queries.GetSnapshotMeta(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewMissingData("transactions", core.SourceSQLite, err)
		}
		return nil, fmt.Errorf("get snapshot meta: %w", err)
	}

	payloads, err := r.queries.ListTransactionPayloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	raws := make([]core.RawTransaction, 0, len(payloads))
	for i, p := range payloads {
		var raw core.RawTransaction
		dec := json.NewDecoder(bytes.NewReader([]byte(p)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// ReplaceTransactions swaps the snapshot in one database transaction.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, txs []core.Transaction) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteTransactions(ctx); err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		for i, t := range txs {
			payload, err := json.Marshal(t.Raw())
			if err != nil {
				return fmt.Errorf("encode transaction %d: %w", i, err)
			}
			if err := q.InsertTransaction(ctx, int64(i), string(payload)); err != nil {
				return fmt.Errorf("insert transaction %d: %w", i, err)
			}
		}
		return q.UpsertSnapshotMeta(ctx, r.now().UTC().Format(time.RFC3339), int64(len(txs)))
	})
	if err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Transaction snapshot replaced", log.FieldTransactionCount, len(txs))
	return nil
}

// ReadBudgets returns the stored budgets.
func (r *SQLiteRepository) ReadBudgets(ctx context.Context) (core.BudgetMap, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(rows) == 0 {
		return nil, core.NewMissingData("budgets", core.SourceSQLite, nil)
	}
	budgets := make(core.BudgetMap, len(rows))
	for _, b := range rows {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: budget for %q: %v", core.ErrInvalidBudgets, b.Category, err)
		}
		budgets[b.Category] = amount
	}
	return budgets, nil
}

// WriteBudgets replaces every stored budget.
func (r *SQLiteRepository) WriteBudgets(ctx context.Context, budgets core.BudgetMap) error {
	if err := budgets.Validate(); err != nil {
		return err
	}
	now := r.now().UTC().Format(time.RFC3339)
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteBudgets(ctx); err != nil {
			return fmt.Errorf("delete budgets: %w", err)
		}
		for _, category := range budgets.Categories() {
			err := q.InsertBudget(ctx, InsertBudgetParams{
				Category:  category,
				Amount:    budgets[category].String(),
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("insert budget %q: %w", category, err)
			}
		}
		return nil
	})
}

// LoadAccessToken returns the stored aggregator access token.
func (r *SQLiteRepository) LoadAccessToken(ctx context.Context) (string, error) {
	cred, err := r.queries.GetCredential(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.NewMissingData("access token", core.SourceSQLite, err)
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return cred.AccessToken, nil
}

// SaveAccessToken stores the token and its item id, replacing any previous one.
func (r *SQLiteRepository) SaveAccessToken(ctx context.Context, token, itemID string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty access token")
	}
	err := r.queries.UpsertCredential(ctx, Credential{
		AccessToken: token,
		ItemID:      itemID,
		UpdatedAt:   r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// LastSync returns when the snapshot was last replaced, or ok=false if never.
func (r *SQLiteRepository) LastSync(ctx context.Context) (at time.Time, count int, ok bool, err error) {
	meta, err := r.queries.GetSnapshotMeta(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, 0, false, nil
	}
	if err != nil {
		return time.Time{}, 0, false, fmt.Errorf("get snapshot meta: %w", err)
	}
	at, err = time.Parse(time.RFC3339, meta.SyncedAt)
	if err != nil {
		return time.Time{}, 0, false, fmt.Errorf("parse synced_at: %w", err)
	}
	return at, int(meta.TransactionCount), true, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
