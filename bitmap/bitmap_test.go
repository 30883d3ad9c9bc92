package bitmap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Basics(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	s.Add(7)
	s.Add(3)
	s.Add(7)

	assert.False(t, s.IsEmpty())
	assert.Equal(t, 2, s.Cardinality())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.Equal(t, []uint32{3, 7}, s.ToArray())
	assert.Equal(t, []uint32{3, 7}, slices.Collect(s.Iterator()))
}

func TestSet_IteratorStopsEarly(t *testing.T) {
	s := Of(1, 2, 3, 4)
	var got []uint32
	for id := range s.Iterator() {
		got = append(got, id)
		if id == 2 {
			break
		}
	}
	assert.Equal(t, []uint32{1, 2}, got)
}

func TestSet_BinaryRoundTrip(t *testing.T) {
	s := New()
	for i := uint32(0); i < 5000; i += 3 {
		s.Add(i)
	}
	s.Optimize()

	data, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, s.SerializedSize())

	var out Set
	require.NoError(t, out.UnmarshalBinary(data))
	assert.True(t, s.Equal(&out))
}

func TestSet_Equal(t *testing.T) {
	assert.True(t, Of(1, 2).Equal(Of(2, 1)))
	assert.False(t, Of(1, 2).Equal(Of(1)))

	var nilSet *Set
	assert.True(t, nilSet.Equal(nil))
	assert.False(t, Of(1).Equal(nil))
}

func TestSet_CloneIsIndependent(t *testing.T) {
	s := Of(1)
	c := s.Clone()
	c.Add(2)
	assert.Equal(t, 1, s.Cardinality())
	assert.Equal(t, 2, c.Cardinality())
}
