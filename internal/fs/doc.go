// Package fs abstracts the local filesystem so the local blob store can be
// exercised under injected IO faults.
//
//   - [LocalFS] forwards to the os package and is the production default.
//   - [FaultyFS] wraps another FileSystem and fails writes, syncs, closes or
//     renames of matching files on demand.
//
// Operations take no context: local syscalls are not interruptible. Remote
// backends in package blobstore carry a context instead.
package fs
