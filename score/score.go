// Package score ranks first guesses by how much they shrink the candidate set.
//
// For a guess g and a uniformly random answer a, the reduced set R(g, a) is
// the class of answers that give g the same feedback as a. Three policies
// summarize the class sizes |R(g, a)| over all answers:
//
//   - ExpectedRemaining: mean |R(g, a)|. Lower is better.
//   - WorstCase: max |R(g, a)|. Lower is better.
//   - Entropy: mean log2(N / |R(g, a)|), the bits of information the feedback
//     carries. Higher is better. N is always the dictionary size: |R(g, a)|
//     counts matches over the whole dictionary, so N / |R(g, a)| stays the
//     inverse class probability even when some answers are unresolved.
//
// Scores come either from a built reduction matrix (FromStore) or directly
// from feedback partitions (FromPartitions); both agree on a complete matrix.
package score

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/word"
)

// Policy selects the figure guesses are ranked by.
type Policy int

const (
	ExpectedRemaining Policy = iota
	WorstCase
	Entropy
)

func (p Policy) String() string {
	switch p {
	case ExpectedRemaining:
		return "expected"
	case WorstCase:
		return "worst"
	case Entropy:
		return "entropy"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "expected", "worst" or "entropy".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expected":
		return ExpectedRemaining, nil
	case "worst":
		return WorstCase, nil
	case "entropy":
		return Entropy, nil
	default:
		return 0, word.Invalid("policy", s, "expected one of expected, worst, entropy")
	}
}

// Score holds every policy's figure for one guess.
type Score struct {
	Guess word.Word
	// Index is the guess's dictionary position.
	Index int

	ExpectedRemaining float64
	WorstCase         int
	Entropy           float64

	// Unresolved counts the answers whose cell could not be computed. They
	// are left out of the means and the maximum above; the entropy term of
	// every resolved answer is unaffected by them.
	Unresolved int
}

// Value returns the figure p ranks by.
func (s Score) Value(p Policy) float64 {
	switch p {
	case WorstCase:
		return float64(s.WorstCase)
	case Entropy:
		return s.Entropy
	default:
		return s.ExpectedRemaining
	}
}

// Compare orders a before b when a is the better guess under p. Ties fall back
// to dictionary order.
func Compare(p Policy, a, b Score) int {
	c := cmp.Compare(a.Value(p), b.Value(p))
	if p == Entropy {
		c = -c
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Rank returns scores sorted best first. The input is left untouched.
func Rank(scores []Score, p Policy) []Score {
	out := slices.Clone(scores)
	slices.SortStableFunc(out, func(a, b Score) int { return Compare(p, a, b) })
	return out
}

// Top returns the n best scores under p.
func Top(scores []Score, p Policy, n int) []Score {
	out := Rank(scores, p)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Options configures scoring.
type Options struct {
	// Workers bounds concurrently scored guesses. Defaults to GOMAXPROCS.
	Workers int
}

// Option configures scoring.
type Option func(*Options)

// WithWorkers sets the scoring concurrency.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func options(optFns []Option) Options {
	opts := Options{Workers: runtime.GOMAXPROCS(0)}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return opts
}

// FromPartitions scores every dictionary word as a guess from its feedback
// partition of the dictionary.
func FromPartitions(ctx context.Context, dict *word.Dictionary, optFns ...Option) ([]Score, error) {
	return scoreAll(ctx, dict, options(optFns), func(_ context.Context, g int) (Score, error) {
		codes, err := feedback.Codes(dict.At(g), dict)
		if err != nil {
			return Score{}, err
		}
		classSize := make(map[uint32]int)
		for _, c := range codes {
			classSize[c]++
		}
		sizes := make([]int, len(codes))
		for i, c := range codes {
			sizes[i] = classSize[c]
		}
		return fromSizes(dict.At(g), g, dict.Len(), sizes, 0), nil
	})
}

// FromStore scores every dictionary word as a guess from the reduced sets in
// a built matrix. Only class sizes are read, through store.MatrixStore.Count.
// It fails with store.ErrNotFound while the matrix is incomplete. Unresolved
// cells are counted, not scored.
func FromStore(ctx context.Context, st store.MatrixStore, dict *word.Dictionary, optFns ...Option) ([]Score, error) {
	return scoreAll(ctx, dict, options(optFns), func(ctx context.Context, g int) (Score, error) {
		guess := dict.At(g)
		sizes := make([]int, 0, dict.Len())
		unresolved := 0
		for a := 0; a < dict.Len(); a++ {
			n, err := st.Count(ctx, guess, dict.At(a))
			if errors.Is(err, store.ErrUnresolved) {
				unresolved++
				continue
			}
			if err != nil {
				return Score{}, err
			}
			sizes = append(sizes, n)
		}
		return fromSizes(guess, g, dict.Len(), sizes, unresolved), nil
	})
}

func scoreAll(ctx context.Context, dict *word.Dictionary, opts Options, fn func(context.Context, int) (Score, error)) ([]Score, error) {
	scores := make([]Score, dict.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range scores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := fn(gctx, i)
			if err != nil {
				return fmt.Errorf("score %q: %w", dict.At(i), err)
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// fromSizes summarizes the reduced-set sizes of one guess over a dictionary
// of n words.
// fromSizes summarizes the class sizes of the resolved answers. n is the
// dictionary size the classes were drawn from, not len(sizes).
func fromSizes(guess word.Word, index, n int, sizes []int, unresolved int) Score {
	s := Score{Guess: guess, Index: index, Unresolved: unresolved}
	if len(sizes) == 0 {
		return s
	}

	var sum, bits float64
	for _, size := range sizes {
		sum += float64(size)
		s.WorstCase = max(s.WorstCase, size)
		if size > 0 {
			bits += math.Log2(float64(n) / float64(size))
		}
	}
	s.ExpectedRemaining = sum / float64(len(sizes))
	s.Entropy = bits / float64(len(sizes))
	return s
}
