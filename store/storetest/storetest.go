// Package storetest holds the behavioural tests every store.MatrixStore
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/testutil"
	"github.com/hupe1980/wordgain/word"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.MatrixStore

// BatchSize is the batch size the suite creates tables with.
const BatchSize = 5

// FailingPair is reported unresolved by the builders of the suite.
var FailingPair = matrix.CellRef{Guess: "sheep", Answer: "speed"}

var errBoom = errors.New("boom")

// Builder returns a builder over dict whose reducer fails for FailingPair.
func Builder(dict *word.Dictionary) *matrix.Builder {
	return matrix.NewBuilder(dict, matrix.WithWorkers(2), matrix.WithReduceFunc(
		func(guess, answer word.Word, d *word.Dictionary) (*bitmap.Set, error) {
			if guess == FailingPair.Guess && answer == FailingPair.Answer {
				return nil, errBoom
			}
			return feedback.ReduceSet(guess, answer, d)
		}))
}

// Run runs the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	dict := testutil.SampleDictionary()
	schema := store.SchemaFor(dict, BatchSize)
	builder := Builder(dict)

	open := func(t *testing.T) store.MatrixStore {
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	build := func(t *testing.T, start, end int) *matrix.Batch {
		b, err := builder.Build(context.Background(), matrix.Range{Start: start, End: end})
		require.NoError(t, err)
		return b
	}

	t.Run("NoTable", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		_, err := s.ReadProgress(ctx)
		assert.ErrorIs(t, err, store.ErrNoTable)
		_, err = s.Query(ctx, "sheep", "speed")
		assert.ErrorIs(t, err, store.ErrNoTable)
		_, err = s.Schema(ctx)
		assert.ErrorIs(t, err, store.ErrNoTable)
	})

	t.Run("CreateUpsertQuery", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		got, err := s.Schema(ctx)
		require.NoError(t, err)
		require.NoError(t, schema.Check(got))
		assert.Equal(t, schema.Words, got.Words)

		progress, err := s.ReadProgress(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, progress)

		require.NoError(t, s.UpsertColumns(ctx, build(t, 0, BatchSize)))

		for col := 0; col < BatchSize; col++ {
			guess := dict.At(col)
			for row := 0; row < dict.Len(); row++ {
				answer := dict.At(row)
				words, err := s.Query(ctx, guess, answer)
				n, countErr := s.Count(ctx, guess, answer)
				if guess == FailingPair.Guess && answer == FailingPair.Answer {
					assert.ErrorIs(t, err, store.ErrUnresolved)
					assert.ErrorIs(t, countErr, store.ErrUnresolved)
					continue
				}
				require.NoError(t, err)
				require.NoError(t, countErr)
				want, err := feedback.Reduce(guess, answer, dict)
				require.NoError(t, err)
				assert.Equal(t, want, words, "%s/%s", guess, answer)
				assert.Equal(t, len(want), n, "%s/%s", guess, answer)
			}
		}
	})

	t.Run("NotCommitted", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		require.NoError(t, s.UpsertColumns(ctx, build(t, 0, BatchSize)))

		_, err := s.Query(ctx, dict.At(BatchSize), dict.At(0))
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Count(ctx, dict.At(BatchSize), dict.At(0))
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Query(ctx, "zzzzz", dict.At(0))
		assert.ErrorIs(t, err, word.ErrValidation)
		_, err = s.Count(ctx, dict.At(0), "zzzzz")
		assert.ErrorIs(t, err, word.ErrValidation)
	})

	t.Run("Unresolved", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		require.NoError(t, s.UpsertColumns(ctx, build(t, 0, dict.Len())))

		_, err := s.Query(ctx, FailingPair.Guess, FailingPair.Answer)
		var ue *store.UnresolvedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, FailingPair, ue.Cell)
		assert.ErrorIs(t, err, matrix.ErrComputation)
		assert.Contains(t, err.Error(), "boom")

		refs, err := s.Unresolved(ctx)
		require.NoError(t, err)
		assert.Equal(t, []matrix.CellRef{FailingPair}, refs)
	})

	t.Run("IdempotentRecommit", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		b := build(t, BatchSize, 2*BatchSize)
		require.NoError(t, s.UpsertColumns(ctx, b))
		before, err := s.Query(ctx, dict.At(BatchSize), dict.At(3))
		require.NoError(t, err)

		require.NoError(t, s.UpsertColumns(ctx, build(t, BatchSize, 2*BatchSize)))
		after, err := s.Query(ctx, dict.At(BatchSize), dict.At(3))
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Progress", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		require.NoError(t, s.WriteProgress(ctx, 10))
		got, err := s.ReadProgress(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, got)

		require.NoError(t, s.WriteProgress(ctx, dict.Len()))
		assert.ErrorIs(t, s.WriteProgress(ctx, dict.Len()+1), matrix.ErrInvalidRange)
		assert.ErrorIs(t, s.WriteProgress(ctx, -1), matrix.ErrInvalidRange)

		got, err = s.ReadProgress(ctx)
		require.NoError(t, err)
		assert.Equal(t, dict.Len(), got)
	})

	t.Run("ReplaceTable", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		require.NoError(t, s.UpsertColumns(ctx, build(t, 0, BatchSize)))
		require.NoError(t, s.WriteProgress(ctx, BatchSize))

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		progress, err := s.ReadProgress(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, progress)
		_, err = s.Query(ctx, dict.At(0), dict.At(0))
		assert.ErrorIs(t, err, store.ErrNotFound)
		refs, err := s.Unresolved(ctx)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("ForeignBatch", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))

		other := word.MustDictionary(word.DefaultLength, "crane", "slate", "hello")
		b, err := matrix.NewBuilder(other).Build(ctx, matrix.Range{Start: 0, End: 1})
		require.NoError(t, err)
		assert.ErrorIs(t, s.UpsertColumns(ctx, b), store.ErrSchemaMismatch)
	})

	t.Run("SchemaCheck", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateOrReplaceTable(ctx, schema))
		got, err := s.Schema(ctx)
		require.NoError(t, err)

		assert.ErrorIs(t, store.SchemaFor(dict, BatchSize+1).Check(got), store.ErrSchemaMismatch)
		smaller := word.MustDictionary(word.DefaultLength, testutil.SampleWords[:10]...)
		assert.ErrorIs(t, store.SchemaFor(smaller, BatchSize).Check(got), store.ErrSchemaMismatch)
	})
}
