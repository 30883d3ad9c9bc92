package scheduler

import "github.com/hupe1980/wordgain/matrix"

// DefaultBatchSize is the number of guess columns per batch.
const DefaultBatchSize = 10

// Plan splits the columns [from, n) into consecutive batches of batchSize.
// The last batch may be shorter.
func Plan(n, batchSize, from int) []matrix.Range {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	from = max(from, 0)
	if from >= n {
		return nil
	}

	out := make([]matrix.Range, 0, (n-from+batchSize-1)/batchSize)
	for start := from; start < n; start += batchSize {
		out = append(out, matrix.Range{Start: start, End: min(start+batchSize, n)})
	}
	return out
}
