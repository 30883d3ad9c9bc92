// Package segment encodes one committed matrix batch as an immutable blob.
//
// # Format
//
//	Header (16 bytes, little endian)
//	  Magic         uint32  "WGSG"
//	  Version       uint32
//	  Checksum      uint32  CRC32C of Body
//	  BodyLength    uint32
//	Body
//	  Compression   uint8   none | lz4 | zstd
//	  RawLength     uint32  length of the uncompressed payload
//	  Payload       (compressed)
//	    Start, End, Rows  uint32
//	    Cells, row-major over (answer row, guess column):
//	      Status    uint8   0 resolved, 1 unresolved
//	      resolved:   Len uint32, portable roaring bitmap
//	      unresolved: Len uint16, failure reason
//
// The checksum covers the compressed body, so corruption is reported before
// any decompression is attempted.
package segment
