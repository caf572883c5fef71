// Package sqlite implements the record store on SQLite. Documents are kept as
// JSON text in a single table keyed by collection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements storage.Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStorage opens the database at path and creates the schema.
// Use ":memory:" for an in-memory database.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w: %w", errs.ErrStoreUnavailable, err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStorage{db: db}
	if err := store.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return store, nil
}

func (s *SQLiteStorage) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStorage) Insert(ctx context.Context, collection string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(collection, body) VALUES(?, ?)`, collection, string(body)); err != nil {
		return fmt.Errorf("insert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStorage) FindOne(ctx context.Context, collection string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return findFirst(ctx, s.db, collection, out)
}

func (s *SQLiteStorage) FindMany(ctx context.Context, collection string, limit int, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq LIMIT ?`, collection, limit)
	if err != nil {
		return fmt.Errorf("query %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scan %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
		}
		docs = append(docs, []byte(body))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}

	return storage.DecodeMany(docs, out)
}

// FindOrInsert reads the first document of collection, inserting doc when the
// collection is empty. Both steps share one transaction.
func (s *SQLiteStorage) FindOrInsert(ctx context.Context, collection string, doc any, out any) (bool, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w: %w", errs.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	err = findFirst(ctx, tx, collection, out)
	if err == nil {
		return false, tx.Commit()
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents(collection, body) VALUES(?, ?)`, collection, string(body)); err != nil {
		return false, fmt.Errorf("insert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w: %w", errs.ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return true, fmt.Errorf("unmarshal document: %w", err)
	}
	return true, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStorage) Close(ctx context.Context) error {
	return s.db.Close()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findFirst(ctx context.Context, q queryRower, collection string, out any) error {
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq LIMIT 1`, collection).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}
