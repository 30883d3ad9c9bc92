package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/wordgain/blobstore"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Schema describes the matrix a manifest belongs to.
type Schema struct {
	WordLength  int
	Words       []string
	Fingerprint uint64
	BatchSize   int
}

// SegmentInfo describes one committed batch.
type SegmentInfo struct {
	Start      int
	End        int
	Path       string
	Size       int64
	Unresolved int
}

// Manifest is the committed state of a matrix at one point in time.
type Manifest struct {
	Version    int
	ID         uint64
	CreatedAt  time.Time
	Schema     Schema
	NextOffset int
	// Segments is sorted by Start; ranges are disjoint.
	Segments []SegmentInfo
}

// New creates an empty manifest for schema.
func New(schema Schema) *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		CreatedAt: time.Now(),
		Schema:    schema,
	}
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Schema.Words = append([]string(nil), m.Schema.Words...)
	c.Segments = append([]SegmentInfo(nil), m.Segments...)
	return &c
}

// AddSegment records a segment, replacing one with the same range.
func (m *Manifest) AddSegment(seg SegmentInfo) error {
	i := sort.Search(len(m.Segments), func(i int) bool { return m.Segments[i].Start >= seg.Start })
	if i < len(m.Segments) && m.Segments[i].Start == seg.Start {
		if m.Segments[i].End != seg.End {
			return fmt.Errorf("segment [%d,%d) conflicts with [%d,%d)", seg.Start, seg.End, m.Segments[i].Start, m.Segments[i].End)
		}
		m.Segments[i] = seg
		return nil
	}
	if i > 0 && m.Segments[i-1].End > seg.Start {
		return fmt.Errorf("segment [%d,%d) overlaps [%d,%d)", seg.Start, seg.End, m.Segments[i-1].Start, m.Segments[i-1].End)
	}
	if i < len(m.Segments) && m.Segments[i].Start < seg.End {
		return fmt.Errorf("segment [%d,%d) overlaps [%d,%d)", seg.Start, seg.End, m.Segments[i].Start, m.Segments[i].End)
	}
	m.Segments = append(m.Segments, SegmentInfo{})
	copy(m.Segments[i+1:], m.Segments[i:])
	m.Segments[i] = seg
	return nil
}

// Find returns the segment covering column col.
func (m *Manifest) Find(col int) (SegmentInfo, bool) {
	i := sort.Search(len(m.Segments), func(i int) bool { return m.Segments[i].End > col })
	if i < len(m.Segments) && m.Segments[i].Start <= col {
		return m.Segments[i], true
	}
	return SegmentInfo{}, false
}

// Store manages manifest blobs and the CURRENT pointer.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

func fileName(id uint64) string {
	return fmt.Sprintf("%s-%06d.bin", ManifestFileName, id)
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fileName(versionID)
	if versionID == 0 {
		current, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(current))
	}

	data, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", name, err)
	}
	return ReadBinary(data)
}

// Save writes m as the next version and publishes it through CURRENT.
// On error m is left unchanged.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := m.Clone()
	next.Version = CurrentVersion
	next.ID = m.ID + 1
	next.CreatedAt = time.Now()

	data, err := next.MarshalBinary()
	if err != nil {
		return err
	}

	name := fileName(next.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return err
	}
	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return err
	}

	m.Version, m.ID, m.CreatedAt = next.Version, next.ID, next.CreatedAt
	return nil
}

// ListVersions returns the IDs of all stored manifest versions in ascending order.
func (s *Store) ListVersions(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return nil, err
	}

	var ids []uint64
	for _, name := range names {
		var id uint64
		if _, err := fmt.Sscanf(name, ManifestFileName+"-%06d.bin", &id); err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// DeleteVersion deletes the manifest file for the given version.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, fileName(versionID))
}

// Prune deletes all versions older than the newest keep versions.
func (s *Store) Prune(ctx context.Context, keep int) error {
	ids, err := s.ListVersions(ctx)
	if err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}
	for len(ids) > keep {
		if err := s.DeleteVersion(ctx, ids[0]); err != nil {
			return err
		}
		ids = ids[1:]
	}
	return nil
}
