// Package trust serves the trust metrics document, seeding a default one the
// first time it is read from an empty store.
package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/model"
	"github.com/and161185/trust-backend/storage"
	"github.com/google/uuid"
)

// Store is the subset of storage.Storage the provider needs.
type Store interface {
	Insert(ctx context.Context, collection string, doc any) error
	FindOne(ctx context.Context, collection string, out any) error
}

// Provider is a get-or-initialize accessor for the trust metrics document.
type Provider struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithIDGenerator overrides the id source for seeded documents.
func WithIDGenerator(newID func() string) Option {
	return func(p *Provider) { p.newID = newID }
}

func NewProvider(store Store, opts ...Option) *Provider {
	p := &Provider{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default builds a fresh default document.
func (p *Provider) Default() model.TrustMetrics {
	return model.TrustMetrics{
		ID:        p.newID(),
		Items:     DefaultItems(),
		UpdatedAt: p.now().UTC(),
	}
}

// Get returns the first trust metrics document in the store. When there is
// none, it persists and returns a default one.
//
// Stores implementing storage.FindOrInserter do the read and the insert in one
// step, so only one default is ever stored. With other stores two concurrent
// first calls may both insert; each still gets a valid document back.
func (p *Provider) Get(ctx context.Context) (model.TrustMetrics, error) {
	if fi, ok := p.store.(storage.FindOrInserter); ok {
		var doc model.TrustMetrics
		if _, err := fi.FindOrInsert(ctx, model.CollectionTrustMetrics, p.Default(), &doc); err != nil {
			return model.TrustMetrics{}, unavailable("find or insert trust metrics", err)
		}
		return doc, nil
	}

	var doc model.TrustMetrics
	err := p.store.FindOne(ctx, model.CollectionTrustMetrics, &doc)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.TrustMetrics{}, unavailable("find trust metrics", err)
	}

	doc = p.Default()
	if err := p.store.Insert(ctx, model.CollectionTrustMetrics, doc); err != nil {
		return model.TrustMetrics{}, unavailable("insert default trust metrics", err)
	}
	return doc, nil
}

// unavailable makes sure every store failure surfaces as ErrStoreUnavailable,
// including decode errors the backends report without it.
func unavailable(op string, err error) error {
	if errors.Is(err, errs.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, errs.ErrStoreUnavailable, err)
}
