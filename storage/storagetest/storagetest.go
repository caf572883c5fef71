// Package storagetest holds contract tests shared by every storage backend.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID      string    `json:"id" bson:"id"`
	Name    string    `json:"name" bson:"name"`
	Created time.Time `json:"created" bson:"created"`
}

// collection returns a collection name unique to this run so the suite can
// share a database with other data.
func collection(t *testing.T) string {
	t.Helper()
	return "storagetest_" + uuid.NewString()[:8]
}

// Run exercises st against the storage.Storage contract.
func Run(t *testing.T, st storage.Storage) {
	t.Run("find_one_empty", func(t *testing.T) {
		var r record
		err := st.FindOne(context.Background(), collection(t), &r)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("insert_then_find_one", func(t *testing.T) {
		ctx := context.Background()
		coll := collection(t)
		want := record{ID: uuid.NewString(), Name: "first", Created: time.Now().UTC().Truncate(time.Millisecond)}
		require.NoError(t, st.Insert(ctx, coll, want))
		require.NoError(t, st.Insert(ctx, coll, record{ID: uuid.NewString(), Name: "second"}))

		var got record
		require.NoError(t, st.FindOne(ctx, coll, &got))
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Name, got.Name)
		require.True(t, want.Created.Equal(got.Created))
	})

	t.Run("find_many_limit", func(t *testing.T) {
		ctx := context.Background()
		coll := collection(t)
		for i := 0; i < 15; i++ {
			require.NoError(t, st.Insert(ctx, coll, record{ID: uuid.NewString()}))
		}

		var got []record
		require.NoError(t, st.FindMany(ctx, coll, 10, &got))
		require.Len(t, got, 10)
	})

	t.Run("find_many_empty", func(t *testing.T) {
		var got []record
		require.NoError(t, st.FindMany(context.Background(), collection(t), 10, &got))
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, st.Ping(context.Background()))
	})

	fi, ok := st.(storage.FindOrInserter)
	if !ok {
		return
	}

	t.Run("find_or_insert", func(t *testing.T) {
		ctx := context.Background()
		coll := collection(t)

		first := record{ID: uuid.NewString(), Name: "first"}
		var out record
		created, err := fi.FindOrInsert(ctx, coll, first, &out)
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, first.ID, out.ID)

		var again record
		created, err = fi.FindOrInsert(ctx, coll, record{ID: uuid.NewString()}, &again)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, first.ID, again.ID)
	})
}

// RunAtomic checks that concurrent FindOrInsert calls on an empty collection
// persist exactly one document.
func RunAtomic(t *testing.T, fi storage.FindOrInserter, st storage.Storage) {
	ctx := context.Background()
	coll := collection(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out record
			_, err := fi.FindOrInsert(ctx, coll, record{ID: uuid.NewString()}, &out)
			assert.NoError(t, err)
			ids[i] = out.ID
		}(i)
	}
	wg.Wait()

	var all []record
	require.NoError(t, st.FindMany(ctx, coll, 100, &all))
	require.Len(t, all, 1)
	for _, id := range ids {
		require.Equal(t, all[0].ID, id)
	}
}
