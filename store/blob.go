package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/blobstore"
	"github.com/hupe1980/wordgain/internal/cache"
	"github.com/hupe1980/wordgain/internal/manifest"
	"github.com/hupe1980/wordgain/internal/segment"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/resource"
	"github.com/hupe1980/wordgain/word"
)

// DefaultCacheBytes is the default budget for decoded segments.
const DefaultCacheBytes = 64 << 20

// BlobOptions configures a BlobStore.
type BlobOptions struct {
	Compression segment.Compression
	// CacheBytes bounds the decoded-segment cache. 0 uses DefaultCacheBytes,
	// a negative value disables caching.
	CacheBytes int64
	// Resources throttles commit IO and accounts cached segments. May be nil.
	Resources *resource.Controller
	// KeepManifests is the number of manifest versions kept after a commit.
	// Values below 1 keep two.
	KeepManifests int
}

// BlobOption configures a BlobStore.
type BlobOption func(*BlobOptions)

// WithCompression selects the segment codec.
func WithCompression(c segment.Compression) BlobOption {
	return func(o *BlobOptions) { o.Compression = c }
}

// WithCacheBytes sets the decoded-segment cache budget.
func WithCacheBytes(n int64) BlobOption {
	return func(o *BlobOptions) { o.CacheBytes = n }
}

// WithResources attaches a resource controller.
func WithResources(rc *resource.Controller) BlobOption {
	return func(o *BlobOptions) { o.Resources = rc }
}

// WithKeepManifests sets how many manifest versions survive a commit.
func WithKeepManifests(n int) BlobOption {
	return func(o *BlobOptions) { o.KeepManifests = n }
}

// BlobStore is a MatrixStore over immutable blobs.
//
// Each committed batch is one segment blob named after its column range;
// the manifest lists the segments and the progress watermark. Publishing
// a new manifest through CURRENT is the commit point of both UpsertColumns
// and WriteProgress.
type BlobStore struct {
	blobs     blobstore.BlobStore
	manifests *manifest.Store
	opts      BlobOptions
	cache     *cache.LRU[string, *matrix.Batch]

	mu   sync.Mutex // guards m and dict
	m    *manifest.Manifest
	dict *word.Dictionary
}

// NewBlobStore creates a matrix store over blobs.
func NewBlobStore(blobs blobstore.BlobStore, optFns ...BlobOption) *BlobStore {
	var opts BlobOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CacheBytes == 0 {
		opts.CacheBytes = DefaultCacheBytes
	}
	if opts.KeepManifests < 1 {
		opts.KeepManifests = 2
	}

	s := &BlobStore{
		blobs:     blobs,
		manifests: manifest.NewStore(blobs),
		opts:      opts,
	}
	if opts.CacheBytes > 0 {
		s.cache = cache.NewLRU[string, *matrix.Batch](opts.CacheBytes, opts.Resources)
	}
	return s
}

// current returns the loaded manifest and dictionary, loading them on first use.
// Callers hold s.mu.
func (s *BlobStore) current(ctx context.Context) (*manifest.Manifest, *word.Dictionary, error) {
	if s.m != nil {
		return s.m, s.dict, nil
	}

	m, err := s.manifests.Load(ctx)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return nil, nil, ErrNoTable
		}
		return nil, nil, storageErr("load manifest", err)
	}
	dict, err := word.NewDictionary(m.Schema.WordLength, m.Schema.Words)
	if err != nil {
		return nil, nil, storageErr("load manifest", fmt.Errorf("stored dictionary: %w", err))
	}
	if dict.Fingerprint() != m.Schema.Fingerprint {
		return nil, nil, storageErr("load manifest", fmt.Errorf("%w: stored fingerprint does not match stored words", ErrSchemaMismatch))
	}

	s.m, s.dict = m, dict
	return m, dict, nil
}

// commit publishes next and makes it current. Callers hold s.mu.
func (s *BlobStore) commit(ctx context.Context, op string, next *manifest.Manifest) error {
	if err := s.manifests.Save(ctx, next); err != nil {
		return storageErr(op, err)
	}
	s.m = next
	// Old versions are garbage; failing to remove them is harmless.
	_ = s.manifests.Prune(ctx, s.opts.KeepManifests)
	return nil
}

// CreateOrReplaceTable implements MatrixStore.
func (s *BlobStore) CreateOrReplaceTable(ctx context.Context, schema Schema) error {
	dict, err := schema.Dictionary()
	if err != nil {
		return err
	}
	if dict.Fingerprint() != schema.Fingerprint {
		return fmt.Errorf("%w: fingerprint does not match words", ErrSchemaMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var prevID uint64
	if m, _, err := s.current(ctx); err == nil {
		prevID = m.ID
	} else if ctx.Err() != nil {
		return ctx.Err()
	}
	// A missing or unreadable table is simply replaced.
	// Version IDs keep growing across tables so pruning never drops the new one.
	if ids, err := s.manifests.ListVersions(ctx); err == nil && len(ids) > 0 && ids[len(ids)-1] > prevID {
		prevID = ids[len(ids)-1]
	}

	next := manifest.New(manifest.Schema{
		WordLength:  schema.WordLength,
		Words:       append([]string(nil), schema.Words...),
		Fingerprint: schema.Fingerprint,
		BatchSize:   schema.BatchSize,
	})
	next.ID = prevID
	if err := s.commit(ctx, "create table", next); err != nil {
		return err
	}
	s.dict = dict
	if s.cache != nil {
		s.cache.Purge()
	}

	// Segments of the replaced table are unreachable from the new manifest.
	names, err := s.blobs.List(ctx, "SEG-")
	if err == nil {
		for _, name := range names {
			_ = s.blobs.Delete(ctx, name)
		}
	}
	return nil
}

// UpsertColumns implements MatrixStore.
func (s *BlobStore) UpsertColumns(ctx context.Context, batch *matrix.Batch) error {
	s.mu.Lock()
	_, dict, err := s.current(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := CheckBatch(dict, batch); err != nil {
		return err
	}

	data, err := segment.Encode(batch, s.opts.Compression)
	if err != nil {
		return storageErr("encode segment", err)
	}
	if err := s.opts.Resources.AcquireIO(ctx, len(data)); err != nil {
		return err
	}

	name := segment.Name(batch.Range)
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return storageErr("write segment", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, err := s.current(ctx)
	if err != nil {
		return err
	}
	next := m.Clone()
	if err := next.AddSegment(manifest.SegmentInfo{
		Start:      batch.Range.Start,
		End:        batch.Range.End,
		Path:       name,
		Size:       int64(len(data)),
		Unresolved: len(batch.Unresolved()),
	}); err != nil {
		return storageErr("write segment", err)
	}
	if err := s.commit(ctx, "commit segment", next); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Set(name, batch, matrix.EstimateBytes(batch.Rows(), batch.Width()))
	}
	return nil
}

// Query implements MatrixStore.
func (s *BlobStore) Query(ctx context.Context, guess, answer word.Word) ([]word.Word, error) {
	set, dict, err := s.cell(ctx, guess, answer)
	if err != nil {
		return nil, err
	}
	return matrix.Words(dict, set), nil
}

// Count implements MatrixStore.
func (s *BlobStore) Count(ctx context.Context, guess, answer word.Word) (int, error) {
	set, _, err := s.cell(ctx, guess, answer)
	if err != nil {
		return 0, err
	}
	return set.Cardinality(), nil
}

func (s *BlobStore) cell(ctx context.Context, guess, answer word.Word) (*bitmap.Set, *word.Dictionary, error) {
	s.mu.Lock()
	m, dict, err := s.current(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	g, a, err := lookupPair(dict, guess, answer)
	if err != nil {
		return nil, nil, err
	}

	info, ok := m.Find(g)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, guess, answer)
	}

	batch, err := s.segment(ctx, info, dict)
	if err != nil {
		return nil, nil, err
	}

	cell := batch.Cell(a, g-info.Start)
	if !cell.Resolved() {
		return nil, nil, &UnresolvedError{Cell: matrix.CellRef{Guess: dict.At(g), Answer: dict.At(a)}, Cause: cell.Err}
	}
	return cell.Set, dict, nil
}

func (s *BlobStore) segment(ctx context.Context, info manifest.SegmentInfo, dict *word.Dictionary) (*matrix.Batch, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(info.Path); ok {
			return b, nil
		}
	}

	data, err := blobstore.ReadAll(ctx, s.blobs, info.Path)
	if err != nil {
		return nil, storageErr("read segment", err)
	}
	b, err := segment.Decode(data, dict)
	if err != nil {
		return nil, storageErr("read segment", err)
	}
	if b.Range.Start != info.Start || b.Range.End != info.End {
		return nil, storageErr("read segment", fmt.Errorf("%s holds %s", info.Path, b.Range))
	}

	if s.cache != nil {
		s.cache.Set(info.Path, b, matrix.EstimateBytes(b.Rows(), b.Width()))
	}
	return b, nil
}

// ReadProgress implements MatrixStore.
func (s *BlobStore) ReadProgress(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, err := s.current(ctx)
	if err != nil {
		return 0, err
	}
	return m.NextOffset, nil
}

// WriteProgress implements MatrixStore.
func (s *BlobStore) WriteProgress(ctx context.Context, offset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, dict, err := s.current(ctx)
	if err != nil {
		return err
	}
	if offset < 0 || offset > dict.Len() {
		return fmt.Errorf("%w: progress %d outside [0,%d]", matrix.ErrInvalidRange, offset, dict.Len())
	}
	if offset == m.NextOffset {
		return nil
	}

	next := m.Clone()
	next.NextOffset = offset
	return s.commit(ctx, "write progress", next)
}

// Schema implements MatrixStore.
func (s *BlobStore) Schema(ctx context.Context) (Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, err := s.current(ctx)
	if err != nil {
		return Schema{}, err
	}
	return Schema{
		WordLength:  m.Schema.WordLength,
		Words:       append([]string(nil), m.Schema.Words...),
		Fingerprint: m.Schema.Fingerprint,
		BatchSize:   m.Schema.BatchSize,
	}, nil
}

// Unresolved implements MatrixStore.
func (s *BlobStore) Unresolved(ctx context.Context) ([]matrix.CellRef, error) {
	s.mu.Lock()
	m, dict, err := s.current(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var refs []matrix.CellRef
	for _, info := range m.Segments {
		if info.Unresolved == 0 {
			continue
		}
		b, err := s.segment(ctx, info, dict)
		if err != nil {
			return nil, err
		}
		refs = append(refs, b.Unresolved()...)
	}
	return refs, nil
}

// Segments returns the column ranges of all committed segments.
func (s *BlobStore) Segments(ctx context.Context) ([]matrix.Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]matrix.Range, len(m.Segments))
	for i, seg := range m.Segments {
		out[i] = matrix.Range{Start: seg.Start, End: seg.End}
	}
	return out, nil
}

// Close implements MatrixStore.
func (s *BlobStore) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return nil
}

// String describes the store for logs.
func (s *BlobStore) String() string {
	var b strings.Builder
	b.WriteString("blob")
	if s.opts.Compression != segment.CompressionNone {
		b.WriteString("+" + s.opts.Compression.String())
	}
	return b.String()
}

var _ MatrixStore = (*BlobStore)(nil)
