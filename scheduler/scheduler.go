package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/resource"
	"github.com/hupe1980/wordgain/store"
)

const (
	// DefaultMaxRetries is the number of commit retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoff is the delay before the first commit retry.
	DefaultBackoff = 100 * time.Millisecond

	maxBackoff = 10 * time.Second
)

// Options configures a Scheduler.
type Options struct {
	BatchSize int

	// Resume continues from the store's progress. Without it the table is
	// replaced and the build starts at column 0.
	Resume bool

	// MaxRetries bounds the commit retries of one batch. Negative disables retries.
	MaxRetries int

	// Backoff is the first retry delay; it doubles on every further attempt.
	Backoff time.Duration

	// Resources bounds in-flight batches and their memory. When nil, batches
	// run one at a time.
	Resources *resource.Controller

	Logger  Logger
	Metrics MetricsObserver
}

// Option configures a Scheduler.
type Option func(*Options)

// WithBatchSize sets the number of guess columns per batch.
func WithBatchSize(n int) Option {
	return func(o *Options) { o.BatchSize = n }
}

// WithResume continues from the persisted progress.
func WithResume(resume bool) Option {
	return func(o *Options) { o.Resume = resume }
}

// WithRetry sets the commit retry budget and the initial backoff.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
		o.Backoff = backoff
	}
}

// WithResources sets the resource controller.
func WithResources(rc *resource.Controller) Option {
	return func(o *Options) { o.Resources = rc }
}

// WithLogger sets the event logger.
func WithLogger(l Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics observer.
func WithMetrics(m MetricsObserver) Option {
	return func(o *Options) { o.Metrics = m }
}

// Report summarizes a run.
type Report struct {
	RunID string

	// Start is the watermark the run resumed from.
	Start int

	// NextOffset is the persisted watermark when the run ended.
	NextOffset int

	// Complete reports whether every column has a committed batch.
	Complete bool

	// Batches and Cells count what this run committed.
	Batches int
	Cells   int

	// Unresolved lists the cells of this run whose computation failed, in
	// dictionary order of guess, then answer.
	Unresolved []matrix.CellRef
}

// Scheduler builds a reduction matrix into a store batch by batch.
type Scheduler struct {
	builder *matrix.Builder
	store   store.MatrixStore
	opts    Options
}

// New creates a Scheduler.
func New(builder *matrix.Builder, st store.MatrixStore, optFns ...Option) *Scheduler {
	opts := Options{
		BatchSize:  DefaultBatchSize,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Resources == nil {
		opts.Resources = resource.NewController(resource.Config{MaxInFlight: 1})
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	return &Scheduler{builder: builder, store: st, opts: opts}
}

// run is the mutable state of one Run.
type run struct {
	*Scheduler
	id string
	n  int

	mu        sync.Mutex // guards the fields below
	committed map[int]int
	watermark int
	batches   int
	cells     int
	unres     []matrix.CellRef

	progressMu sync.Mutex // serializes progress writes
	persisted  int
}

// Run builds every batch from the current progress to the end of the
// dictionary. On error the report reflects the last persisted progress, from
// which a later run can resume.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	dict := s.builder.Dictionary()
	r := &run{
		Scheduler: s,
		id:        uuid.NewString(),
		n:         dict.Len(),
		committed: make(map[int]int),
	}
	report := &Report{RunID: r.id}

	from, err := s.prepare(ctx)
	if err != nil {
		s.opts.Logger.LogRunComplete(ctx, report, err)
		return report, err
	}
	report.Start = from
	r.watermark, r.persisted = from, from
	s.opts.Logger.LogResume(ctx, r.id, from, r.n)

	err = r.execute(ctx, Plan(r.n, s.opts.BatchSize, from))

	r.mu.Lock()
	report.NextOffset = r.persisted
	report.Batches = r.batches
	report.Cells = r.cells
	report.Unresolved = r.unres
	r.mu.Unlock()
	report.Complete = report.NextOffset == r.n

	slices.SortFunc(report.Unresolved, func(a, b matrix.CellRef) int {
		ga, _ := dict.Index(a.Guess)
		gb, _ := dict.Index(b.Guess)
		if c := cmp.Compare(ga, gb); c != 0 {
			return c
		}
		aa, _ := dict.Index(a.Answer)
		ab, _ := dict.Index(b.Answer)
		return cmp.Compare(aa, ab)
	})

	s.opts.Logger.LogRunComplete(ctx, report, err)
	return report, err
}

// prepare creates or checks the table and returns the column to start at.
func (s *Scheduler) prepare(ctx context.Context) (int, error) {
	want := store.SchemaFor(s.builder.Dictionary(), s.opts.BatchSize)

	if s.opts.Resume {
		have, err := s.store.Schema(ctx)
		switch {
		case err == nil:
			if err := have.Check(want); err != nil {
				return 0, err
			}
			return s.store.ReadProgress(ctx)
		case !errors.Is(err, store.ErrNoTable):
			return 0, err
		}
	}

	if err := s.store.CreateOrReplaceTable(ctx, want); err != nil {
		return 0, err
	}
	return 0, nil
}

func (r *run) execute(ctx context.Context, plan []matrix.Range) error {
	rc := r.opts.Resources

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	for _, rg := range plan {
		// Batch boundary: stop scheduling once the run is cancelled or failed.
		if err := rc.AcquireBatch(gctx); err != nil {
			break
		}
		if gctx.Err() != nil {
			rc.ReleaseBatch()
			break
		}
		mem, err := rc.AcquireMemory(gctx, matrix.EstimateBytes(r.n, rg.Len()))
		if err != nil {
			rc.ReleaseBatch()
			break
		}

		g.Go(func() error {
			err := r.batch(gctx, rg)
			if err != nil {
				// Cancel before the slot frees up so no further batch starts.
				cancel()
			}
			rc.ReleaseMemory(mem)
			rc.ReleaseBatch()
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (r *run) batch(ctx context.Context, rg matrix.Range) error {
	start := time.Now()
	b, err := r.builder.Build(ctx, rg)
	if err != nil {
		return err
	}
	unresolved := b.Unresolved()
	r.opts.Metrics.RecordBatch(b.Len(), len(unresolved), time.Since(start))

	// A batch finished after cancellation is discarded, never committed.
	if err := ctx.Err(); err != nil {
		return err
	}

	commitStart := time.Now()
	if err := r.commit(ctx, b); err != nil {
		return err
	}

	for _, cell := range unresolved {
		r.opts.Logger.LogUnresolved(ctx, r.id, cell, r.cellErr(b, cell))
	}
	r.opts.Logger.LogBatchCommit(ctx, r.id, rg, b.Len(), len(unresolved), time.Since(commitStart))

	r.mu.Lock()
	r.batches++
	r.cells += b.Len()
	r.unres = append(r.unres, unresolved...)
	r.committed[rg.Start] = rg.End
	for {
		end, ok := r.committed[r.watermark]
		if !ok {
			break
		}
		delete(r.committed, r.watermark)
		r.watermark = end
	}
	mark := r.watermark
	r.mu.Unlock()

	return r.advance(ctx, b.Range, mark)
}

// commit upserts b, retrying storage failures with exponential backoff.
func (r *run) commit(ctx context.Context, b *matrix.Batch) error {
	err := r.retry(ctx, b.Range, func() error {
		start := time.Now()
		err := r.store.UpsertColumns(ctx, b)
		r.opts.Metrics.RecordCommit(b.Len(), time.Since(start), err)
		return err
	})
	if err != nil {
		return fmt.Errorf("commit batch %s: %w", b.Range, err)
	}
	return nil
}

// advance persists mark if it is beyond the last persisted watermark. The
// write is retried like a commit since a lost mark only costs recomputation.
func (r *run) advance(ctx context.Context, rg matrix.Range, mark int) error {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()

	if mark <= r.persisted {
		return nil
	}
	err := r.retry(ctx, rg, func() error {
		return r.store.WriteProgress(ctx, mark)
	})
	if err != nil {
		return fmt.Errorf("advance progress to %d: %w", mark, err)
	}

	r.mu.Lock()
	r.persisted = mark
	r.mu.Unlock()
	return nil
}

// retry runs op until it succeeds, fails with a non-storage error, or the
// retry budget is spent. Delays double from Backoff up to maxBackoff.
func (r *run) retry(ctx context.Context, rg matrix.Range, op func() error) error {
	delay := r.opts.Backoff
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrStorage) || attempt >= r.opts.MaxRetries {
			return err
		}

		r.opts.Logger.LogCommitRetry(ctx, r.id, rg, attempt+1, err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, maxBackoff)
	}
}

func (r *run) cellErr(b *matrix.Batch, cell matrix.CellRef) error {
	dict := r.builder.Dictionary()
	g, _ := dict.Index(cell.Guess)
	a, _ := dict.Index(cell.Answer)
	return b.Cell(a, g-b.Range.Start).Err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
