package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/store/storetest"
	"github.com/hupe1980/wordgain/testutil"
)

func TestStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) store.MatrixStore {
			s, err := Open(":memory:")
			require.NoError(t, err)
			return s
		})
	})

	t.Run("file", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) store.MatrixStore {
			s, err := Open(filepath.Join(t.TempDir(), "db", "matrix.db"))
			require.NoError(t, err)
			return s
		})
	})
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dict := testutil.SampleDictionary()
	path := filepath.Join(t.TempDir(), "matrix.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateOrReplaceTable(ctx, store.SchemaFor(dict, storetest.BatchSize)))
	b, err := storetest.Builder(dict).Build(ctx, matrix.Range{Start: 0, End: storetest.BatchSize})
	require.NoError(t, err)
	require.NoError(t, s.UpsertColumns(ctx, b))
	require.NoError(t, s.WriteProgress(ctx, storetest.BatchSize))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	schema, err := s.Schema(ctx)
	require.NoError(t, err)
	assert.Equal(t, dict.Strings(), schema.Words)
	assert.Equal(t, dict.Fingerprint(), schema.Fingerprint)
	assert.Equal(t, storetest.BatchSize, schema.BatchSize)

	progress, err := s.ReadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, storetest.BatchSize, progress)

	_, err = s.Query(ctx, storetest.FailingPair.Guess, storetest.FailingPair.Answer)
	assert.ErrorIs(t, err, store.ErrUnresolved)
	assert.ErrorIs(t, err, matrix.ErrComputation)
}

func TestStore_CancelledUpsert(t *testing.T) {
	dict := testutil.SampleDictionary()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateOrReplaceTable(context.Background(), store.SchemaFor(dict, storetest.BatchSize)))
	b, err := storetest.Builder(dict).Build(context.Background(), matrix.Range{Start: 0, End: storetest.BatchSize})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.UpsertColumns(ctx, b))

	_, err = s.Query(context.Background(), dict.At(0), dict.At(0))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "not computed", reason(nil))
	assert.Equal(t, assert.AnError.Error(), reason(&matrix.ComputationError{Cause: assert.AnError}))
}
