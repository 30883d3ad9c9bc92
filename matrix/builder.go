package matrix

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/word"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how a batch's cells are computed.
type Strategy int

const (
	// StrategyFilter reduces the dictionary separately for every pair with
	// feedback.ReduceSet. Θ(N·L) per cell.
	StrategyFilter Strategy = iota

	// StrategyPartition groups the dictionary once per guess column by the
	// pattern each word produces and assigns every answer row its class.
	// Θ(N·L) per column. It relies on IsConsistent inducing exactly the
	// classes of Encode and yields the same cells as StrategyFilter.
	StrategyPartition
)

func (s Strategy) String() string {
	switch s {
	case StrategyFilter:
		return "filter"
	case StrategyPartition:
		return "partition"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ReduceFunc computes one reduced set.
type ReduceFunc func(guess, answer word.Word, dict *word.Dictionary) (*bitmap.Set, error)

// Options configures a Builder.
type Options struct {
	// Workers bounds the number of concurrent tasks. Defaults to GOMAXPROCS.
	Workers int

	// RowsPerTask is the number of answer rows one filter task owns.
	// Defaults to splitting each column into about 4×Workers tasks.
	RowsPerTask int

	Strategy Strategy

	// Reduce overrides the per-pair reducer of StrategyFilter.
	// Defaults to feedback.ReduceSet.
	Reduce ReduceFunc
}

// Option configures a Builder.
type Option func(*Options)

// WithWorkers sets the task concurrency.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithRowsPerTask sets how many answer rows a filter task owns.
func WithRowsPerTask(n int) Option {
	return func(o *Options) { o.RowsPerTask = n }
}

// WithStrategy selects the computation strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Options) { o.Strategy = s }
}

// WithReduceFunc overrides the per-pair reducer.
func WithReduceFunc(fn ReduceFunc) Option {
	return func(o *Options) { o.Reduce = fn }
}

// Builder computes column batches of the reduction matrix for one dictionary.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	dict *word.Dictionary
	opts Options
}

// NewBuilder creates a Builder for dict.
func NewBuilder(dict *word.Dictionary, optFns ...Option) *Builder {
	opts := Options{
		Workers:  runtime.GOMAXPROCS(0),
		Strategy: StrategyFilter,
		Reduce:   feedback.ReduceSet,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Reduce == nil {
		opts.Reduce = feedback.ReduceSet
	}
	return &Builder{dict: dict, opts: opts}
}

// Dictionary returns the dictionary the builder works on.
func (b *Builder) Dictionary() *word.Dictionary { return b.dict }

// Build computes every cell of the column range r across all answer rows.
//
// Cells that fail are returned unresolved rather than failing the batch.
// Build only returns an error for an invalid range or a cancelled context, in
// which case no batch is returned.
func (b *Builder) Build(ctx context.Context, r Range) (*Batch, error) {
	n := b.dict.Len()
	if err := r.Validate(n); err != nil {
		return nil, err
	}

	answers := b.dict.Words()
	batch := NewBatch(r, answers[r.Start:r.End:r.End], answers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	switch b.opts.Strategy {
	case StrategyPartition:
		for col := 0; col < batch.Width(); col++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b.fillByPartition(batch, col)
				return nil
			})
		}
	default:
		step := b.rowsPerTask(n)
		for col := 0; col < batch.Width(); col++ {
			for lo := 0; lo < n; lo += step {
				hi := min(lo+step, n)
				g.Go(func() error {
					return b.fillByFilter(gctx, batch, col, lo, hi)
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (b *Builder) rowsPerTask(n int) int {
	if b.opts.RowsPerTask > 0 {
		return b.opts.RowsPerTask
	}
	step := n / (4 * b.opts.Workers)
	return max(step, 1)
}

func (b *Builder) fillByFilter(ctx context.Context, batch *Batch, col, lo, hi int) error {
	guess := batch.Guesses[col]
	for row := lo; row < hi; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch.SetCell(row, col, b.compute(guess, batch.Answers[row]))
	}
	return nil
}

// compute runs the reducer for one pair and turns failures, including panics,
// into an unresolved cell.
func (b *Builder) compute(guess, answer word.Word) (c Cell) {
	defer func() {
		if r := recover(); r != nil {
			c = Cell{Err: &ComputationError{Guess: guess, Answer: answer, Cause: fmt.Errorf("panic: %v", r)}}
		}
	}()
	set, err := b.opts.Reduce(guess, answer, b.dict)
	if err != nil {
		return Cell{Err: &ComputationError{Guess: guess, Answer: answer, Cause: err}}
	}
	return Cell{Set: set}
}

func (b *Builder) fillByPartition(batch *Batch, col int) {
	guess := batch.Guesses[col]
	codes, err := b.codes(guess)
	if err != nil {
		for row, a := range batch.Answers {
			batch.SetCell(row, col, Cell{Err: &ComputationError{Guess: guess, Answer: a, Cause: err}})
		}
		return
	}
	classes := feedback.Group(codes)
	for row := range batch.Answers {
		batch.SetCell(row, col, Cell{Set: classes[codes[row]]})
	}
}

func (b *Builder) codes(guess word.Word) (codes []uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return feedback.Codes(guess, b.dict)
}
