// Package matrix builds the reduction matrix one guess-column batch at a time.
//
// The reduction matrix maps every (guess, answer) pair of a dictionary to the
// dictionary subset still consistent with the feedback of that pair. Rows are
// keyed by answer, columns by guess. Filtering the whole dictionary for every
// pair costs Θ(N³·L), so the matrix is never materialized at once: a Builder
// computes a Batch of B guess columns across all N answer rows, and only one
// batch is held in memory per call.
//
// # Concurrency
//
// Work inside a batch is split into tasks that own a disjoint set of cells, so
// workers share nothing mutable and need no locks. The number of concurrent
// tasks is bounded by WithWorkers.
//
// # Failures
//
// A pair whose computation fails or panics does not abort the batch. Its cell
// is marked unresolved with a *ComputationError and reported by
// Batch.Unresolved. Cancelling the context aborts the batch and returns no
// partial result.
package matrix
