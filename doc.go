// Package wordgain measures how much a Wordle guess narrows the field.
//
// Playing a guess against a hidden answer yields a feedback pattern; the
// reduced dictionary of (guess, answer) is every word that would have produced
// the same pattern. wordgain precomputes the reduced dictionary of every
// (guess, answer) pair of a dictionary into a reduction matrix, batch by batch,
// and persists it in a store that survives crashes and can be resumed.
//
// # Quick Start
//
//	ctx := context.Background()
//	a, _ := wordgain.Open(ctx, wordgain.Local("./data"), dictionary.Sample(),
//	    wordgain.WithBatchSize(10),
//	    wordgain.WithResume(true),
//	)
//	defer a.Close()
//
//	report, err := a.Build(ctx)
//	words, err := a.Query(ctx, "crane", "slate")
//
// Reopen a built table without the dictionary:
//
//	a, _ := wordgain.Open(ctx, wordgain.Local("./data"), nil)
//
// # Backends
//
//   - Local: segment blobs in a directory, committed by an atomic CURRENT swap
//   - Remote: the same layout on any blobstore.BlobStore (S3, MinIO)
//   - SQLite: one database file, every batch in one transaction
//   - Memory: for tests and one-shot analysis
//
// # Errors
//
// Errors match ErrValidation, ErrStorage, ErrComputation, ErrNotFound,
// ErrUnresolved and ErrSchemaMismatch with errors.Is. A cell whose
// computation failed is committed as unresolved and reported by Query as an
// *UnresolvedError instead of failing the build.
package wordgain
