package segment

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/testutil"
	"github.com/hupe1980/wordgain/word"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBatch(t *testing.T, dict *word.Dictionary, r matrix.Range) *matrix.Batch {
	t.Helper()
	b, err := matrix.NewBuilder(dict, matrix.WithStrategy(matrix.StrategyPartition)).Build(context.Background(), r)
	require.NoError(t, err)
	return b
}

func assertSameCells(t *testing.T, want, got *matrix.Batch) {
	t.Helper()
	require.Equal(t, want.Range, got.Range)
	require.Equal(t, want.Guesses, got.Guesses)
	require.Equal(t, want.Answers, got.Answers)
	for row := 0; row < want.Rows(); row++ {
		for col := 0; col < want.Width(); col++ {
			w, g := want.Cell(row, col), got.Cell(row, col)
			require.Equal(t, w.Resolved(), g.Resolved(), "row=%d col=%d", row, col)
			if w.Resolved() {
				require.True(t, w.Set.Equal(g.Set), "row=%d col=%d", row, col)
			}
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	dict := testutil.NewRNG(3).Dictionary(200, 5, "abcdest")
	batch := buildBatch(t, dict, matrix.Range{Start: 40, End: 50})

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Encode(batch, c)
			require.NoError(t, err)

			got, err := Decode(data, dict)
			require.NoError(t, err)
			assertSameCells(t, batch, got)
		})
	}
}

func TestCompressionShrinksPayload(t *testing.T) {
	dict := testutil.NewRNG(5).Dictionary(300, 5, "abcde")
	batch := buildBatch(t, dict, matrix.Range{Start: 0, End: 20})

	raw, err := Encode(batch, CompressionNone)
	require.NoError(t, err)
	zstd, err := Encode(batch, CompressionZSTD)
	require.NoError(t, err)
	assert.Less(t, len(zstd), len(raw))
}

func TestUnresolvedCellsSurvive(t *testing.T) {
	dict := testutil.SampleDictionary()
	r := matrix.Range{Start: 0, End: 2}
	words := dict.Words()

	batch := matrix.NewBatch(r, words[0:2], words)
	for row := range words {
		for col := 0; col < 2; col++ {
			batch.SetCell(row, col, matrix.Cell{Set: bitmap.Of(uint32(row))})
		}
	}
	batch.SetCell(3, 1, matrix.Cell{Err: &matrix.ComputationError{
		Guess: words[1], Answer: words[3], Cause: errors.New("worker panicked"),
	}})

	data, err := Encode(batch, CompressionLZ4)
	require.NoError(t, err)
	got, err := Decode(data, dict)
	require.NoError(t, err)

	assert.Equal(t, []matrix.CellRef{{Guess: words[1], Answer: words[3]}}, got.Unresolved())
	cell := got.Cell(3, 1)
	assert.ErrorIs(t, cell.Err, matrix.ErrComputation)
	assert.EqualError(t, errors.Unwrap(cell.Err), "worker panicked")
}

func TestDecode_Corruption(t *testing.T) {
	dict := testutil.SampleDictionary()
	batch := buildBatch(t, dict, matrix.Range{Start: 0, End: 5})
	data, err := Encode(batch, CompressionZSTD)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		dict   *word.Dictionary
	}{
		{"short", func(b []byte) []byte { return b[:10] }, dict},
		{"magic", func(b []byte) []byte { b[0] ^= 0xff; return b }, dict},
		{"version", func(b []byte) []byte { b[4] = 9; return b }, dict},
		{"checksum", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }, dict},
		{"truncated", func(b []byte) []byte { return b[:len(b)-3] }, dict},
		{"other dictionary", func(b []byte) []byte { return b }, word.MustDictionary(5, "abcde", "edcba", "zzzzz", "crane", "slate", "sheep")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.mutate(append([]byte(nil), data...)), tt.dict)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "SEG-000020-000030.seg", Name(matrix.Range{Start: 20, End: 30}))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, " zstd ": CompressionZSTD} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
