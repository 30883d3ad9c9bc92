// Package store persists the reduction matrix.
//
// A [MatrixStore] holds one table keyed by (answer row, guess column) plus
// the batch progress watermark. Every implementation guarantees that
// UpsertColumns is all-or-nothing for readers and idempotent per cell, so a
// scheduler may safely recommit a batch after a crash or a retry.
//
// Implementations:
//
//   - [BlobStore]: one compressed segment blob per batch plus a manifest,
//     over any blobstore.BlobStore (local directory, memory, S3, MinIO)
//   - sqlite.Store: a relational table with INSERT ... ON CONFLICT upserts
package store
