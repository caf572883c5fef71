// Package backend picks a storage implementation from a connection string.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/trust-backend/storage"
	"github.com/and161185/trust-backend/storage/inmemory"
	"github.com/and161185/trust-backend/storage/mongo"
	"github.com/and161185/trust-backend/storage/postgres"
	"github.com/and161185/trust-backend/storage/sqlite"
)

// Kind names a storage backend.
type Kind string

const (
	Memory   Kind = "memory"
	Mongo    Kind = "mongo"
	Postgres Kind = "postgres"
	SQLite   Kind = "sqlite"
)

// Detect maps dsn to a backend kind.
//
//	""                          memory
//	mongodb://, mongodb+srv://  mongo
//	postgres://, postgresql://  postgres
//	sqlite://<path>, file:...   sqlite
func Detect(dsn string) (Kind, error) {
	switch {
	case dsn == "":
		return Memory, nil
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return Mongo, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"):
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database dsn scheme: %q", dsn)
}

// Open connects to the backend named by dsn. dbName selects the database for
// backends that keep several per server (mongo).
func Open(ctx context.Context, dsn, dbName string) (storage.Storage, Kind, error) {
	kind, err := Detect(dsn)
	if err != nil {
		return nil, "", err
	}

	var st storage.Storage
	switch kind {
	case Memory:
		st = inmemory.NewMemStorage(ctx)
	case Mongo:
		st, err = mongo.NewMongoStorage(ctx, dsn, dbName)
	case Postgres:
		st, err = postgres.NewPostgresStorage(ctx, dsn)
	case SQLite:
		st, err = sqlite.NewSQLiteStorage(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s storage: %w", kind, err)
	}
	return st, kind, nil
}
