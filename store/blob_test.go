package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain/blobstore"
	"github.com/hupe1980/wordgain/internal/fs"
	"github.com/hupe1980/wordgain/internal/segment"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/resource"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/store/storetest"
	"github.com/hupe1980/wordgain/testutil"
)

func TestBlobStore(t *testing.T) {
	tests := []struct {
		name  string
		blobs func(t *testing.T) blobstore.BlobStore
		opts  []store.BlobOption
	}{
		{
			name:  "memory",
			blobs: func(*testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		},
		{
			name:  "memory/nocache",
			blobs: func(*testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
			opts:  []store.BlobOption{store.WithCacheBytes(-1)},
		},
		{
			name:  "local/zstd",
			blobs: func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
			opts:  []store.BlobOption{store.WithCompression(segment.CompressionZSTD), store.WithCacheBytes(-1)},
		},
		{
			name:  "local/lz4",
			blobs: func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
			opts: []store.BlobOption{
				store.WithCompression(segment.CompressionLZ4),
				store.WithResources(resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storetest.Run(t, func(t *testing.T) store.MatrixStore {
				return store.NewBlobStore(tt.blobs(t), tt.opts...)
			})
		})
	}
}

func TestBlobStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dict := testutil.SampleDictionary()
	blobs := blobstore.NewLocalStore(t.TempDir())

	s := store.NewBlobStore(blobs)
	require.NoError(t, s.CreateOrReplaceTable(ctx, store.SchemaFor(dict, storetest.BatchSize)))
	for start := 0; start < 10; start += storetest.BatchSize {
		b, err := storetest.Builder(dict).Build(ctx, matrix.Range{Start: start, End: start + storetest.BatchSize})
		require.NoError(t, err)
		require.NoError(t, s.UpsertColumns(ctx, b))
	}
	require.NoError(t, s.WriteProgress(ctx, 10))
	require.NoError(t, s.Close())

	reopened := store.NewBlobStore(blobs)
	defer reopened.Close()

	progress, err := reopened.ReadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, progress)

	segs, err := reopened.Segments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []matrix.Range{{Start: 0, End: 5}, {Start: 5, End: 10}}, segs)

	words, err := reopened.Query(ctx, "crane", "slate")
	require.NoError(t, err)
	assert.Contains(t, words, dict.At(7))

	refs, err := reopened.Unresolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []matrix.CellRef{storetest.FailingPair}, refs)

	// Only the newest manifests survive pruning.
	names, err := blobs.List(ctx, "MANIFEST-")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestBlobStore_KeepManifests(t *testing.T) {
	tests := []struct {
		keep int
		want int
	}{
		{keep: 0, want: 2},
		{keep: 1, want: 1},
		{keep: 4, want: 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("keep %d", tt.keep), func(t *testing.T) {
			ctx := context.Background()
			dict := testutil.SampleDictionary()
			blobs := blobstore.NewMemoryStore()
			s := store.NewBlobStore(blobs, store.WithKeepManifests(tt.keep))
			defer s.Close()

			require.NoError(t, s.CreateOrReplaceTable(ctx, store.SchemaFor(dict, storetest.BatchSize)))
			for offset := 1; offset <= 6; offset++ {
				require.NoError(t, s.WriteProgress(ctx, offset))
			}

			names, err := blobs.List(ctx, "MANIFEST-")
			require.NoError(t, err)
			assert.Len(t, names, tt.want)

			progress, err := s.ReadProgress(ctx)
			require.NoError(t, err)
			assert.Equal(t, 6, progress)
		})
	}
}

func TestBlobStore_CommitFailure(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		fault   fs.Fault
	}{
		{"segment write", "SEG-", fs.Fault{FailAfterBytes: 16}},
		{"manifest sync", "MANIFEST-", fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"current rename", "CURRENT", fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dict := testutil.SampleDictionary()
			faulty := fs.NewFaultyFS(nil)
			blobs := blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(faulty))

			s := store.NewBlobStore(blobs, store.WithCacheBytes(-1))
			defer s.Close()
			require.NoError(t, s.CreateOrReplaceTable(ctx, store.SchemaFor(dict, storetest.BatchSize)))

			b, err := storetest.Builder(dict).Build(ctx, matrix.Range{Start: 0, End: storetest.BatchSize})
			require.NoError(t, err)

			faulty.AddRule(tt.pattern, tt.fault)
			err = s.UpsertColumns(ctx, b)
			require.ErrorIs(t, err, store.ErrStorage)
			assert.ErrorIs(t, err, fs.ErrInjected)
			assert.Positive(t, faulty.Hits())
			faulty.ClearRules()

			// Nothing of the batch is visible, to this store or a fresh one.
			for _, ms := range []store.MatrixStore{s, store.NewBlobStore(blobs)} {
				_, err = ms.Query(ctx, dict.At(0), dict.At(0))
				assert.ErrorIs(t, err, store.ErrNotFound)
				progress, err := ms.ReadProgress(ctx)
				require.NoError(t, err)
				assert.Equal(t, 0, progress)
			}

			// The batch commits once the fault is gone.
			require.NoError(t, s.UpsertColumns(ctx, b))
			_, err = s.Query(ctx, dict.At(0), dict.At(0))
			assert.NoError(t, err)
		})
	}
}

func TestBlobStore_CorruptSegment(t *testing.T) {
	ctx := context.Background()
	dict := testutil.SampleDictionary()
	blobs := blobstore.NewMemoryStore()

	s := store.NewBlobStore(blobs, store.WithCacheBytes(-1))
	require.NoError(t, s.CreateOrReplaceTable(ctx, store.SchemaFor(dict, storetest.BatchSize)))
	b, err := storetest.Builder(dict).Build(ctx, matrix.Range{Start: 0, End: storetest.BatchSize})
	require.NoError(t, err)
	require.NoError(t, s.UpsertColumns(ctx, b))

	name := segment.Name(b.Range)
	data, err := blobstore.ReadAll(ctx, blobs, name)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, blobs.Put(ctx, name, data))

	_, err = s.Query(ctx, dict.At(0), dict.At(0))
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, segment.ErrCorrupt)
}

func TestBlobStore_String(t *testing.T) {
	assert.Equal(t, "blob", store.NewBlobStore(blobstore.NewMemoryStore()).String())
	assert.Equal(t, "blob+zstd", store.NewBlobStore(blobstore.NewMemoryStore(),
		store.WithCompression(segment.CompressionZSTD)).String())
}
