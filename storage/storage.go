// Package storage defines the record store contract implemented by the backends
// under storage/ and a few helpers shared by the JSON-based ones.
package storage

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks . Storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Storage is a document store keyed by collection name.
//
// FindOne returns errs.ErrNotFound when the collection is empty. Every other
// failure wraps errs.ErrStoreUnavailable.
type Storage interface {
	Insert(ctx context.Context, collection string, doc any) error
	FindOne(ctx context.Context, collection string, out any) error
	FindMany(ctx context.Context, collection string, limit int, out any) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// FindOrInserter is implemented by stores that can read the first document of a
// collection and insert doc when there is none as a single atomic step.
// created reports whether doc was inserted; out always holds the stored document.
type FindOrInserter interface {
	FindOrInsert(ctx context.Context, collection string, doc any, out any) (created bool, err error)
}

// DecodeMany decodes raw JSON documents into the slice pointed to by out.
// An empty input yields an empty, non-nil slice.
func DecodeMany(docs [][]byte, out any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')

	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("decode documents: %w", err)
	}
	return nil
}

// Copy round-trips doc through JSON into out. Backends use it to hand back the
// document they just inserted.
func Copy(doc any, out any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
