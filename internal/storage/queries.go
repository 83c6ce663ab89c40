package storage

import (
	"context"
)

const listBudgets = `-- name: ListBudgets :many
SELECT category, amount, updated_at FROM budgets ORDER BY category
`

func (q *Queries) ListBudgets(ctx context.Context) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(&i.Category, &i.Amount, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteBudgets = `-- name: DeleteBudgets :exec
DELETE FROM budgets
`

func (q *Queries) DeleteBudgets(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteBudgets)
	return err
}

const insertBudget = `-- name: InsertBudget :exec
INSERT INTO budgets (category, amount, updated_at) VALUES (?, ?, ?)
`

type InsertBudgetParams struct {
	Category  string
	Amount    string
	UpdatedAt string
}

func (q *Queries) InsertBudget(ctx context.Context, arg InsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, insertBudget, arg.Category, arg.Amount, arg.UpdatedAt)
	return err
}

const listTransactionPayloads = `-- name: ListTransactionPayloads :many
SELECT payload FROM transactions ORDER BY position
`

func (q *Queries) ListTransactionPayloads(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionPayloads)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		items = append(items, payload)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransactions = `-- name: DeleteTransactions :exec
DELETE FROM transactions
`

func (q *Queries) DeleteTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteTransactions)
	return err
}

const insertTransaction = `-- name: InsertTransaction :exec
INSERT INTO transactions (position, payload) VALUES (?, ?)
`

func (q *Queries) InsertTransaction(ctx context.Context, position int64, payload string) error {
	_, err := q.db.ExecContext(ctx, insertTransaction, position, payload)
	return err
}

const getSnapshotMeta = `-- name: GetSnapshotMeta :one
SELECT synced_at, transaction_count FROM snapshot_meta WHERE id = 1
`

func (q *Queries) GetSnapshotMeta(ctx context.Context) (SnapshotMeta, error) {
	row := q.db.QueryRowContext(ctx, getSnapshotMeta)
	var i SnapshotMeta
	err := row.Scan(&i.SyncedAt, &i.TransactionCount)
	return i, err
}

const upsertSnapshotMeta = `-- name: UpsertSnapshotMeta :exec
INSERT INTO snapshot_meta (id, synced_at, transaction_count) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET synced_at = excluded.synced_at, transaction_count = excluded.transaction_count
`

func (q *Queries) UpsertSnapshotMeta(ctx context.Context, syncedAt string, count int64) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshotMeta, syncedAt, count)
	return err
}

const getCredential = `-- name: GetCredential :one
SELECT access_token, item_id, updated_at FROM credentials WHERE id = 1
`

func (q *Queries) GetCredential(ctx context.Context) (Credential, error) {
	row := q.db.QueryRowContext(ctx, getCredential)
	var i Credential
	err := row.Scan(&i.AccessToken, &i.ItemID, &i.UpdatedAt)
	return i, err
}

const upsertCredential = `-- name: UpsertCredential :exec
INSERT INTO credentials (id, access_token, item_id, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET access_token = excluded.access_token, item_id = excluded.item_id, updated_at = excluded.updated_at
`

func (q *Queries) UpsertCredential(ctx context.Context, arg Credential) error {
	_, err := q.db.ExecContext(ctx, upsertCredential, arg.AccessToken, arg.ItemID, arg.UpdatedAt)
	return err
}
