// Package bitmap provides the compressed index sets used to hold reduced
// candidate lists.
//
// A reduced dictionary is always a subsequence of the full dictionary, so it is
// stored as the set of dictionary indices it keeps. Iteration is ascending,
// which reproduces dictionary order without sorting.
package bitmap

import (
	"bytes"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a set of dictionary indices backed by a 32-bit Roaring bitmap.
// A Set is not safe for concurrent mutation; once built and handed to a
// batch it is treated as immutable.
type Set struct {
	rb *roaring.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{rb: roaring.New()}
}

// Of creates a set holding ids.
func Of(ids ...uint32) *Set {
	return &Set{rb: roaring.BitmapOf(ids...)}
}

// Add adds id to the set.
func (s *Set) Add(id uint32) {
	s.rb.Add(id)
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id uint32) bool {
	return s.rb.Contains(id)
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of ids in the set.
func (s *Set) Cardinality() int {
	return int(s.rb.GetCardinality())
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	return &Set{rb: s.rb.Clone()}
}

// Equal reports whether both sets hold the same ids.
func (s *Set) Equal(other *Set) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.rb.Equals(other.rb)
}

// Iterator yields the ids in ascending order.
func (s *Set) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToArray returns the ids in ascending order.
func (s *Set) ToArray() []uint32 {
	return s.rb.ToArray()
}

// Optimize converts containers to run encoding where that is smaller.
// Call it once a set is complete and before it is serialized.
func (s *Set) Optimize() {
	s.rb.RunOptimize()
}

// SerializedSize returns the number of bytes MarshalBinary will produce.
func (s *Set) SerializedSize() int {
	return int(s.rb.GetSerializedSizeInBytes())
}

// MarshalBinary serializes the set in the portable Roaring format.
func (s *Set) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s.SerializedSize())
	if _, err := s.rb.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the set with the serialized data.
func (s *Set) UnmarshalBinary(data []byte) error {
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(data)); err != nil {
		return err
	}
	s.rb = rb
	return nil
}
