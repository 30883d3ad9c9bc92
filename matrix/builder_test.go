package matrix

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/testutil"
	"github.com/hupe1980/wordgain/word"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	dict := testutil.SampleDictionary()
	b := NewBuilder(dict, WithWorkers(4))

	batch, err := b.Build(context.Background(), Range{Start: 0, End: 10})
	require.NoError(t, err)

	assert.Equal(t, 10, batch.Width())
	assert.Equal(t, dict.Len(), batch.Rows())
	assert.Equal(t, 10*dict.Len(), batch.Len())
	assert.Empty(t, batch.Unresolved())

	for row := 0; row < batch.Rows(); row++ {
		for col := 0; col < batch.Width(); col++ {
			g, a := batch.Guesses[col], batch.Answers[row]
			want, err := feedback.Reduce(g, a, dict)
			require.NoError(t, err)

			cell := batch.Cell(row, col)
			require.True(t, cell.Resolved())
			assert.Equal(t, want, Words(dict, cell.Set), "guess=%s answer=%s", g, a)
		}
	}
}

func TestBuilder_StrategiesAgree(t *testing.T) {
	dict := testutil.NewRNG(11).Dictionary(120, 5, "abcdesty")
	r := Range{Start: 30, End: 45}

	filter, err := NewBuilder(dict, WithStrategy(StrategyFilter), WithRowsPerTask(7)).Build(context.Background(), r)
	require.NoError(t, err)
	partition, err := NewBuilder(dict, WithStrategy(StrategyPartition)).Build(context.Background(), r)
	require.NoError(t, err)

	for row := 0; row < filter.Rows(); row++ {
		for col := 0; col < filter.Width(); col++ {
			require.True(t, filter.Cell(row, col).Set.Equal(partition.Cell(row, col).Set),
				"row=%d col=%d", row, col)
		}
	}
}

func TestBuilder_UnresolvedCells(t *testing.T) {
	dict := testutil.SampleDictionary()
	boom := errors.New("boom")

	reduce := func(guess, answer word.Word, d *word.Dictionary) (*bitmap.Set, error) {
		switch {
		case guess == "sheep" && answer == "speed":
			return nil, boom
		case guess == "sassy" && answer == "mesas":
			panic("corrupt")
		}
		return feedback.ReduceSet(guess, answer, d)
	}

	batch, err := NewBuilder(dict, WithReduceFunc(reduce)).Build(context.Background(), Range{Start: 0, End: dict.Len()})
	require.NoError(t, err)

	refs := batch.Unresolved()
	require.Len(t, refs, 2)
	assert.ElementsMatch(t, []CellRef{
		{Guess: "sheep", Answer: "speed"},
		{Guess: "sassy", Answer: "mesas"},
	}, refs)

	gi, _ := dict.Index("sheep")
	ai, _ := dict.Index("speed")
	cell := batch.Cell(ai, gi)
	assert.False(t, cell.Resolved())
	assert.ErrorIs(t, cell.Err, ErrComputation)
	assert.ErrorIs(t, cell.Err, boom)

	var ce *ComputationError
	require.True(t, errors.As(cell.Err, &ce))
	assert.Equal(t, word.Word("sheep"), ce.Guess)
}

func TestBuilder_InvalidRange(t *testing.T) {
	b := NewBuilder(testutil.SampleDictionary())
	for _, r := range []Range{{Start: -1, End: 2}, {Start: 5, End: 5}, {Start: 0, End: 21}} {
		_, err := b.Build(context.Background(), r)
		assert.ErrorIs(t, err, ErrInvalidRange, r.String())
	}
}

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewBuilder(testutil.SampleDictionary()).Build(ctx, Range{Start: 0, End: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, batch)
}

func TestRange(t *testing.T) {
	r := Range{Start: 10, End: 20}
	assert.Equal(t, 10, r.Len())
	assert.True(t, r.Contains(10))
	assert.False(t, r.Contains(20))
	assert.True(t, r.Overlaps(Range{Start: 19, End: 25}))
	assert.False(t, r.Overlaps(Range{Start: 20, End: 25}))
	assert.Equal(t, "[10,20)", r.String())
}

func TestBatch_Row(t *testing.T) {
	dict := word.MustDictionary(5, "abcde", "edcba")
	batch, err := NewBuilder(dict).Build(context.Background(), Range{Start: 0, End: 2})
	require.NoError(t, err)

	row := batch.Row(1)
	require.Len(t, row, 2)
	assert.Equal(t, []word.Word{"edcba"}, Words(dict, row["abcde"].Set))
	assert.Equal(t, []word.Word{"edcba"}, Words(dict, row["edcba"].Set))
}
