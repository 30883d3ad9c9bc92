// Package blobstore abstracts the storage of immutable blobs: matrix
// segments, manifests and the CURRENT pointer.
//
// Put must be atomic per blob: a reader sees either the previous content or
// the new content, never a torn write. Re-putting a name overwrites it, which
// is what makes segment commits idempotent.
//
// # Built-in Implementations
//
//   - [LocalStore]: local directory, temp file + rename writes, mmap reads
//   - [MemoryStore]: in-process map, for tests and dry runs
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with a DynamoDB
//     conditional write guarding CURRENT
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
