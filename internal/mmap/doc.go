// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps committed segment files instead of reading them
// into the heap: segments are immutable once published, so a mapping stays
// valid until it is closed.
//
//	m, err := mmap.Open("SEG-000000-000010.seg")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// Close is idempotent. Callers must not touch Bytes() after Close returns.
package mmap
