package db

import (
	"context"
	"database/sql"
)

const kVDelete = `-- name: KVDelete :exec
DELETE FROM kv_store WHERE key = ?
`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kVDelete, key)
	return err
}

const kVGet = `-- name: KVGet :one
SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?
`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	row := q.db.QueryRowContext(ctx, kVGet, key)
	var i KvStore
	err := row.Scan(
		&i.Key,
		&i.Value,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const kVHas = `-- name: KVHas :one
SELECT COUNT(*) FROM kv_store
WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
`

type KVHasParams struct {
	Key string
	Now sql.NullInt64
}

func (q *Queries) KVHas(ctx context.Context, arg KVHasParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, kVHas, arg.Key, arg.Now)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const kVListKeys = `-- name: KVListKeys :many
SELECT key FROM kv_store
WHERE expires_at IS NULL OR expires_at > ?
ORDER BY key
`

func (q *Queries) KVListKeys(ctx context.Context, now sql.NullInt64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, kVListKeys, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const kVSet = `-- name: KVSet :exec
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
`

type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kVSet,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const kVSweepExpired = `-- name: KVSweepExpired :execrows
DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= ?
`

func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) (int64, error) {
	result, err := q.db.ExecContext(ctx, kVSweepExpired, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
