package wordgain_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain"
	"github.com/hupe1980/wordgain/blobstore"
	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/score"
	"github.com/hupe1980/wordgain/testutil"
	"github.com/hupe1980/wordgain/word"
)

func openAnalyzer(t *testing.T, backend wordgain.Backend, dict *word.Dictionary, opts ...wordgain.Option) *wordgain.Analyzer {
	t.Helper()
	a, err := wordgain.Open(context.Background(), backend, dict, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAnalyzer_BuildAndQuery(t *testing.T) {
	ctx := context.Background()
	dict := testutil.SampleDictionary()
	metrics := &wordgain.BasicMetricsCollector{}

	a := openAnalyzer(t, wordgain.Memory(), dict,
		wordgain.WithBatchSize(10),
		wordgain.WithMetricsCollector(metrics),
		wordgain.WithLogger(nil),
	)

	report, err := a.Build(ctx)
	require.NoError(t, err)
	assert.True(t, report.Complete)
	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 400, report.Cells)
	assert.Empty(t, report.Unresolved)
	assert.NotEmpty(t, report.RunID)

	want, err := feedback.Reduce("crane", "slate", dict)
	require.NoError(t, err)
	got, err := a.Query(ctx, "crane", "slate")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	reduced, err := a.Reduce("crane", "slate")
	require.NoError(t, err)
	assert.Equal(t, want, reduced)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.BatchCount)
	assert.Equal(t, int64(400), stats.BatchCells)
	assert.Equal(t, int64(2), stats.CommitCount)
	assert.Equal(t, int64(1), stats.QueryCount)
	assert.Zero(t, stats.QueryErrors)

	status, err := a.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, status.Words)
	assert.Equal(t, 20, status.NextOffset)
	assert.Equal(t, 10, status.BatchSize)
	assert.True(t, status.Complete)
}

func TestAnalyzer_QueryErrors(t *testing.T) {
	ctx := context.Background()
	metrics := &wordgain.BasicMetricsCollector{}
	a := openAnalyzer(t, wordgain.Memory(), testutil.SampleDictionary(),
		wordgain.WithMetricsCollector(metrics))

	_, err := a.Query(ctx, "crane", "slate")
	assert.ErrorIs(t, err, wordgain.ErrNotFound)

	_, err = a.Status(ctx)
	assert.ErrorIs(t, err, wordgain.ErrNotFound)

	_, err = a.Build(ctx)
	require.NoError(t, err)

	_, err = a.Query(ctx, "zzzzz", "slate")
	assert.ErrorIs(t, err, wordgain.ErrValidation)

	_, err = a.Query(ctx, "crane", "sl4te")
	assert.ErrorIs(t, err, wordgain.ErrValidation)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.QueryCount)
	assert.Equal(t, int64(3), stats.QueryErrors)
}

func TestAnalyzer_Encode(t *testing.T) {
	a := openAnalyzer(t, wordgain.Memory(), testutil.SampleDictionary())

	// Words outside the dictionary are fine as long as they are well formed.
	got, err := a.Encode("sassy", "qqqqs")
	require.NoError(t, err)
	want, err := feedback.Encode("sassy", "qqqqs")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = a.Encode("sass", "geese")
	assert.ErrorIs(t, err, wordgain.ErrValidation)
}

func TestAnalyzer_ReopenWithoutDictionary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dict := testutil.SampleDictionary()

	a, err := wordgain.Open(ctx, wordgain.Local(dir), dict,
		wordgain.WithBatchSize(5),
		wordgain.WithCompression(wordgain.CompressionLZ4),
	)
	require.NoError(t, err)
	_, err = a.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b := openAnalyzer(t, wordgain.Local(dir), nil)
	assert.Equal(t, dict.Strings(), b.Dictionary().Strings())

	want, err := feedback.Reduce("geese", "eerie", dict)
	require.NoError(t, err)
	got, err := b.Query(ctx, "geese", "eerie")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnalyzer_OpenWithoutTable(t *testing.T) {
	_, err := wordgain.Open(context.Background(), wordgain.Memory(), nil)
	assert.ErrorIs(t, err, wordgain.ErrNotFound)

	_, err = wordgain.Open(context.Background(), nil, testutil.SampleDictionary())
	assert.ErrorIs(t, err, wordgain.ErrValidation)
}

func TestAnalyzer_ResumeSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "matrix.db")
	dict := testutil.SampleDictionary()

	a := openAnalyzer(t, wordgain.SQLite(path), dict,
		wordgain.WithBatchSize(5),
		wordgain.WithResume(true),
		wordgain.WithStrategy(wordgain.StrategyPartition),
		wordgain.WithMaxInFlight(2),
	)
	report, err := a.Build(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Start)
	assert.True(t, report.Complete)
	require.NoError(t, a.Close())

	b := openAnalyzer(t, wordgain.SQLite(path), dict,
		wordgain.WithBatchSize(5),
		wordgain.WithResume(true),
	)
	report, err = b.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Start)
	assert.Zero(t, report.Batches)
	assert.True(t, report.Complete)

	c := openAnalyzer(t, wordgain.SQLite(path), dict,
		wordgain.WithBatchSize(4),
		wordgain.WithResume(true),
	)
	_, err = c.Build(ctx)
	assert.ErrorIs(t, err, wordgain.ErrSchemaMismatch)
}

func TestAnalyzer_Score(t *testing.T) {
	ctx := context.Background()
	a := openAnalyzer(t, wordgain.Memory(), testutil.SampleDictionary(), wordgain.WithWorkers(2))

	_, err := a.Score(ctx, score.Entropy, wordgain.FromMatrix)
	assert.ErrorIs(t, err, wordgain.ErrNotFound)

	_, err = a.Build(ctx)
	require.NoError(t, err)

	fromMatrix, err := a.Score(ctx, score.Entropy, wordgain.FromMatrix)
	require.NoError(t, err)
	fromPartitions, err := a.Score(ctx, score.Entropy, wordgain.FromPartitions)
	require.NoError(t, err)
	require.Len(t, fromMatrix, 20)
	assert.Equal(t, fromPartitions, fromMatrix)

	_, err = a.Score(ctx, score.Entropy, wordgain.ScoreSource(9))
	assert.ErrorIs(t, err, wordgain.ErrValidation)
}

func TestAnalyzer_KeepManifests(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	a := openAnalyzer(t, wordgain.Remote(blobs), testutil.SampleDictionary(),
		wordgain.WithBatchSize(5),
		wordgain.WithKeepManifests(3),
		wordgain.WithMemoryLimit(1<<20),
	)

	report, err := a.Build(ctx)
	require.NoError(t, err)
	assert.True(t, report.Complete)

	names, err := blobs.List(ctx, "MANIFEST-")
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestAnalyzer_Close(t *testing.T) {
	ctx := context.Background()
	a, err := wordgain.Open(ctx, wordgain.Memory(), testutil.SampleDictionary())
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = a.Build(ctx)
	assert.ErrorIs(t, err, wordgain.ErrClosed)
	_, err = a.Query(ctx, "crane", "slate")
	assert.ErrorIs(t, err, wordgain.ErrClosed)
	_, err = a.Status(ctx)
	assert.ErrorIs(t, err, wordgain.ErrClosed)
}
