// Package manifest persists the committed state of a reduction matrix.
//
// A manifest records the table schema (word length, dictionary and its
// fingerprint, batch size), the committed segments and the batch progress
// watermark NextOffset.
//
// # Binary Format
//
//	Header (16 bytes):
//	  Magic    (4 bytes) - "WGMF"
//	  Version  (4 bytes) - Format version (currently 1)
//	  Checksum (4 bytes) - CRC32C of payload
//	  Length   (4 bytes) - Payload length in bytes
//
//	Payload:
//	  ID          (8 bytes)
//	  CreatedAt   (8 bytes) - Unix nanoseconds
//	  WordLength  (4 bytes)
//	  BatchSize   (4 bytes)
//	  Fingerprint (8 bytes)
//	  NumWords    (4 bytes), Words[] (string)
//	  NextOffset  (4 bytes)
//	  NumSegments (4 bytes), Segments[]:
//	    Start, End (4 bytes each)
//	    Size       (8 bytes)
//	    Unresolved (4 bytes)
//	    Path       (string)
//
// Strings are length-prefixed (2-byte length + bytes).
//
// # Atomic Protocol
//
//  1. Write the manifest blob to MANIFEST-NNNNNN.bin
//  2. Rewrite the CURRENT pointer to name it
//
// Step 2 is the commit point. Readers that load before it see the previous
// manifest in full; readers after it see the new one.
package manifest
