// Package scheduler drives the batched, resumable construction of the
// reduction matrix.
//
// A run splits the guess columns into fixed-size batches starting at the
// store's progress watermark, computes up to MaxInFlight batches
// concurrently on disjoint column ranges, and upserts each finished batch.
// The watermark only advances over the contiguous prefix of committed
// batches, so an interrupted run resumes without recomputation or gaps.
//
// Commits are retried at batch granularity with exponential backoff. A
// cancelled context discards batches that have not started committing.
package scheduler
