// Package postgres implements the record store on PostgreSQL, one jsonb row per document.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	seq BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, databaseDsn string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, databaseDsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w: %w", errs.ErrStoreUnavailable, err)
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return &PostgresStorage{db: db}, nil
}

func (store *PostgresStorage) Insert(ctx context.Context, collection string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = store.db.Exec(ctx,
		`INSERT INTO documents(collection, body) VALUES($1, $2)`, collection, string(body))
	if err != nil {
		return fmt.Errorf("insert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (store *PostgresStorage) FindOne(ctx context.Context, collection string, out any) error {
	return findFirst(ctx, store.db, collection, out)
}

func (store *PostgresStorage) FindMany(ctx context.Context, collection string, limit int, out any) error {
	rows, err := store.db.Query(ctx,
		`SELECT body FROM documents WHERE collection = $1 ORDER BY seq LIMIT $2`, collection, limit)
	if err != nil {
		return fmt.Errorf("query %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return fmt.Errorf("read %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}

	return storage.DecodeMany(docs, out)
}

// FindOrInsert serializes callers per collection with a transaction-scoped
// advisory lock, so only one of several concurrent first callers inserts.
func (store *PostgresStorage) FindOrInsert(ctx context.Context, collection string, doc any, out any) (bool, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	tx, err := store.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w: %w", errs.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection); err != nil {
		return false, fmt.Errorf("lock %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}

	err = findFirst(ctx, tx, collection, out)
	if err == nil {
		return false, tx.Commit(ctx)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return false, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO documents(collection, body) VALUES($1, $2)`, collection, string(body)); err != nil {
		return false, fmt.Errorf("insert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w: %w", errs.ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return true, fmt.Errorf("unmarshal document: %w", err)
	}
	return true, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	if err := store.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (store *PostgresStorage) Close(ctx context.Context) error {
	store.db.Close()
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findFirst(ctx context.Context, q queryRower, collection string, out any) error {
	var body []byte
	err := q.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 ORDER BY seq LIMIT 1`, collection).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}
