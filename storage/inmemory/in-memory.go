// Package inmemory implements the record store in process memory.
package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/storage"
)

// MemStorage keeps JSON-encoded documents per collection in insertion order.
type MemStorage struct {
	collections map[string][][]byte
	mu          sync.RWMutex
}

func NewMemStorage(ctx context.Context) *MemStorage {
	return &MemStorage{
		collections: make(map[string][][]byte),
	}
}

func (store *MemStorage) Insert(ctx context.Context, collection string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.collections[collection] = append(store.collections[collection], data)
	return nil
}

func (store *MemStorage) FindOne(ctx context.Context, collection string, out any) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	docs := store.collections[collection]
	if len(docs) == 0 {
		return errs.ErrNotFound
	}
	if err := json.Unmarshal(docs[0], out); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

func (store *MemStorage) FindMany(ctx context.Context, collection string, limit int, out any) error {
	store.mu.RLock()
	docs := store.collections[collection]
	if limit >= 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	snapshot := make([][]byte, len(docs))
	copy(snapshot, docs)
	store.mu.RUnlock()

	return storage.DecodeMany(snapshot, out)
}

func (store *MemStorage) FindOrInsert(ctx context.Context, collection string, doc any, out any) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if docs := store.collections[collection]; len(docs) > 0 {
		if err := json.Unmarshal(docs[0], out); err != nil {
			return false, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		return false, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to marshal document: %w", err)
	}
	store.collections[collection] = append(store.collections[collection], data)

	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return true, nil
}

// Len reports how many documents a collection holds.
func (store *MemStorage) Len(collection string) int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.collections[collection])
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}

func (store *MemStorage) Close(ctx context.Context) error {
	return nil
}
