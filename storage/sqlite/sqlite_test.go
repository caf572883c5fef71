package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/model"
	"github.com/and161185/trust-backend/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	ctx := context.Background()
	st, err := NewSQLiteStorage(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(ctx) })
	return st
}

func TestSQLiteStorage_FindOneEmpty(t *testing.T) {
	st := newTestStorage(t)

	var doc model.TrustMetrics
	err := st.FindOne(context.Background(), model.CollectionTrustMetrics, &doc)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSQLiteStorage_InsertFindOneKeepsOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	first := model.NewStatusCheck("first")
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, first))
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("second")))

	var got model.StatusCheck
	require.NoError(t, st.FindOne(ctx, model.CollectionStatusChecks, &got))
	require.Equal(t, first.ID, got.ID)
	require.True(t, first.Timestamp.Equal(got.Timestamp))
}

func TestSQLiteStorage_FindManyLimit(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	for i := 0; i < 1500; i++ {
		require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, model.NewStatusCheck("c")))
	}

	var got []model.StatusCheck
	require.NoError(t, st.FindMany(ctx, model.CollectionStatusChecks, 1000, &got))
	require.Len(t, got, 1000)

	var none []model.TrustMetrics
	require.NoError(t, st.FindMany(ctx, model.CollectionTrustMetrics, 1000, &none))
	require.Empty(t, none)
}

func TestSQLiteStorage_FindOrInsertConcurrent(t *testing.T) {
	st := newTestStorage(t)
	storagetest.RunAtomic(t, st, st)
}

func TestSQLiteStorage_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	st, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	sc := model.NewStatusCheck("persisted")
	require.NoError(t, st.Insert(ctx, model.CollectionStatusChecks, sc))
	require.NoError(t, st.Close(ctx))

	reopened, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	var got model.StatusCheck
	require.NoError(t, reopened.FindOne(ctx, model.CollectionStatusChecks, &got))
	require.Equal(t, sc.ID, got.ID)
	require.NoError(t, reopened.Ping(ctx))
}

func TestSQLiteStorage_Contract(t *testing.T) {
	storagetest.Run(t, newTestStorage(t))
}
