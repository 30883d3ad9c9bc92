package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/wordgain/blobstore"
	"github.com/hupe1980/wordgain/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		WordLength:  5,
		Words:       []string{"abcde", "edcba", "zzzzz"},
		Fingerprint: 0xfeedface,
		BatchSize:   2,
	}
}

func TestManifest_BinaryRoundTrip(t *testing.T) {
	m := New(testSchema())
	m.ID = 7
	m.NextOffset = 2
	require.NoError(t, m.AddSegment(SegmentInfo{Start: 0, End: 2, Path: "SEG-000000-000002.seg", Size: 99, Unresolved: 1}))

	data, err := m.MarshalBinary()
	require.NoError(t, err)

	got, err := ReadBinary(data)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Schema, got.Schema)
	assert.Equal(t, m.NextOffset, got.NextOffset)
	assert.Equal(t, m.Segments, got.Segments)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
}

func TestReadBinary_Errors(t *testing.T) {
	data, err := New(testSchema()).MarshalBinary()
	require.NoError(t, err)

	flip := func(i int) []byte {
		b := append([]byte(nil), data...)
		b[i] ^= 0xff
		return b
	}

	_, err = ReadBinary(data[:8])
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = ReadBinary(flip(0))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = ReadBinary(flip(4))
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	_, err = ReadBinary(flip(len(data) - 1))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = ReadBinary(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestManifest_Segments(t *testing.T) {
	m := New(testSchema())

	require.NoError(t, m.AddSegment(SegmentInfo{Start: 20, End: 30, Path: "c"}))
	require.NoError(t, m.AddSegment(SegmentInfo{Start: 0, End: 10, Path: "a"}))
	require.NoError(t, m.AddSegment(SegmentInfo{Start: 10, End: 20, Path: "b"}))

	// Same range replaces.
	require.NoError(t, m.AddSegment(SegmentInfo{Start: 10, End: 20, Path: "b2"}))
	require.Len(t, m.Segments, 3)
	assert.Equal(t, []string{"a", "b2", "c"}, []string{m.Segments[0].Path, m.Segments[1].Path, m.Segments[2].Path})

	assert.Error(t, m.AddSegment(SegmentInfo{Start: 10, End: 15}))
	assert.Error(t, m.AddSegment(SegmentInfo{Start: 25, End: 35}))
	assert.Error(t, m.AddSegment(SegmentInfo{Start: 5, End: 12}))

	for col, want := range map[int]string{0: "a", 9: "a", 10: "b2", 29: "c"} {
		seg, ok := m.Find(col)
		require.True(t, ok, "col=%d", col)
		assert.Equal(t, want, seg.Path)
	}
	_, ok := m.Find(30)
	assert.False(t, ok)

	// Clone is deep.
	c := m.Clone()
	c.Segments[0].Path = "changed"
	c.Schema.Words[0] = "xxxxx"
	assert.Equal(t, "a", m.Segments[0].Path)
	assert.Equal(t, "abcde", m.Schema.Words[0])
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	m := New(testSchema())
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(1), m.ID)

	m.NextOffset = 2
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(2), m.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.ID)
	assert.Equal(t, 2, loaded.NextOffset)

	v1, err := store.LoadVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, v1.NextOffset)

	ids, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	require.NoError(t, store.Prune(ctx, 1))
	ids, err = store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}

func TestStore_FailedCommitKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("no space left")

	ffs := fs.NewFaultyFS(nil)
	store := NewStore(blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(ffs)))

	m := New(testSchema())
	require.NoError(t, store.Save(ctx, m))

	ffs.AddRule(CurrentFileName, fs.Fault{FailAfterBytes: -1, FailOnRename: true, Err: boom})
	m.NextOffset = 2
	err := store.Save(ctx, m)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), m.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loaded.ID)
	assert.Equal(t, 0, loaded.NextOffset)
}
