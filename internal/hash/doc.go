// Package hash provides the CRC32-Castagnoli checksum used to verify
// segment and manifest blobs.
//
//	checksum := hash.CRC32C(payload)
//
// Go's crc32 package picks hardware instructions (SSE4.2, ARM CRC) when the
// CPU has them.
package hash
