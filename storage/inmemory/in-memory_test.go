package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/model"
	"github.com/and161185/trust-backend/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_FindOneEmpty(t *testing.T) {
	st := NewMemStorage(context.Background())

	var doc model.TrustMetrics
	err := st.FindOne(context.Background(), model.CollectionTrustMetrics, &doc)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemStorage_InsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	st := NewMemStorage(ctx)

	first := model.NewStatusCheck("first")
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, first))
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("second")))

	var got model.StatusCheck
	require.NoError(t, st.FindOne(ctx, model.CollectionStatusChecks, &got))
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, "first", got.ClientName)
	require.True(t, first.Timestamp.Equal(got.Timestamp))
}

func TestMemStorage_FindManyLimit(t *testing.T) {
	ctx := context.Background()
	st := NewMemStorage(ctx)

	for i := 0; i < 1500; i++ {
		require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("c")))
	}

	var got []model.StatusCheck
	require.NoError(t, st.FindMany(ctx, model.CollectionStatusChecks, 1000, &got))
	require.Len(t, got, 1000)
}

func TestMemStorage_FindManyEmpty(t *testing.T) {
	ctx := context.Background()
	st := NewMemStorage(ctx)

	var got []model.StatusCheck
	require.NoError(t, st.FindMany(ctx, model.CollectionStatusChecks, 10, &got))
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestMemStorage_CollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	st := NewMemStorage(ctx)
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("x")))

	var doc model.TrustMetrics
	require.ErrorIs(t, st.FindOne(ctx, model.CollectionTrustMetrics, &doc), errs.ErrNotFound)
}

func TestMemStorage_FindOrInsert(t *testing.T) {
	ctx := context.Background()
	st := NewMemStorage(ctx)

	a := model.NewStatusCheck("a")
	var out model.StatusCheck
	created, err := st.FindOrInsert(ctx, model.CollectionStatusChecks, a, &out)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, a.ID, out.ID)

	var again model.StatusCheck
	created, err = st.FindOrInsert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("b"), &again)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, a.ID, again.ID)
	require.Equal(t, 1, st.Len(model.CollectionStatusChecks))
}

func TestMemStorage_Contract(t *testing.T) {
	storagetest.Run(t, NewMemStorage(context.Background()))
}

func TestMemStorage_FindOrInsertConcurrent(t *testing.T) {
	st := NewMemStorage(context.Background())
	storagetest.RunAtomic(t, st, st)
}
