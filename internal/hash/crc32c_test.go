package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720 (iSCSI) for 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))

	h := NewCRC32C()
	_, _ = h.Write([]byte("segment "))
	_, _ = h.Write([]byte("payload"))
	assert.Equal(t, CRC32C([]byte("segment payload")), h.Sum32())

	assert.True(t, Verify([]byte("x"), CRC32C([]byte("x"))))
	assert.False(t, Verify([]byte("y"), CRC32C([]byte("x"))))
}
