package wordgain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/wordgain/blobstore"
	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/resource"
	"github.com/hupe1980/wordgain/scheduler"
	"github.com/hupe1980/wordgain/score"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/store/sqlite"
	"github.com/hupe1980/wordgain/word"
)

// Report summarizes a build run.
type Report = scheduler.Report

// Backend selects where the reduction matrix is stored.
type Backend interface {
	open(ctx context.Context, rc *resource.Controller, o *options) (store.MatrixStore, error)
}

type backendFunc func(ctx context.Context, rc *resource.Controller, o *options) (store.MatrixStore, error)

func (f backendFunc) open(ctx context.Context, rc *resource.Controller, o *options) (store.MatrixStore, error) {
	return f(ctx, rc, o)
}

func blobBackend(blobs blobstore.BlobStore, rc *resource.Controller, o *options) store.MatrixStore {
	return store.NewBlobStore(blobs,
		store.WithCompression(o.compression),
		store.WithCacheBytes(o.cacheBytes),
		store.WithKeepManifests(o.keepManifests),
		store.WithResources(rc),
	)
}

// Local stores the matrix as segment blobs in a directory.
func Local(dir string) Backend {
	return backendFunc(func(_ context.Context, rc *resource.Controller, o *options) (store.MatrixStore, error) {
		return blobBackend(blobstore.NewLocalStore(dir), rc, o), nil
	})
}

// Remote stores the matrix as segment blobs in any blob store, such as the
// S3 and MinIO stores of the blobstore packages.
func Remote(blobs blobstore.BlobStore) Backend {
	return backendFunc(func(_ context.Context, rc *resource.Controller, o *options) (store.MatrixStore, error) {
		return blobBackend(blobs, rc, o), nil
	})
}

// Memory keeps the matrix in process memory.
func Memory() Backend {
	return Remote(blobstore.NewMemoryStore())
}

// SQLite stores the matrix in a SQLite database file.
func SQLite(path string) Backend {
	return backendFunc(func(_ context.Context, _ *resource.Controller, _ *options) (store.MatrixStore, error) {
		return sqlite.Open(path)
	})
}

// Store uses a caller-provided matrix store. The Analyzer takes ownership and
// closes it.
func Store(st store.MatrixStore) Backend {
	return backendFunc(func(context.Context, *resource.Controller, *options) (store.MatrixStore, error) {
		return st, nil
	})
}

// Analyzer builds and serves the reduction matrix of a dictionary.
//
// An Analyzer is safe for concurrent use. Build runs are serialized.
type Analyzer struct {
	dict    *word.Dictionary
	store   store.MatrixStore
	builder *matrix.Builder
	rc      *resource.Controller
	opts    options

	buildMu sync.Mutex

	mu     sync.RWMutex // guards closed
	closed bool
}

// Open opens an Analyzer for dict on backend.
//
// A nil dict reopens the dictionary of the table stored in backend; the
// table must exist. Build replaces or resumes the table as configured.
func Open(ctx context.Context, backend Backend, dict *word.Dictionary, optFns ...Option) (*Analyzer, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrValidation)
	}
	opts := applyOptions(optFns)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:  opts.memoryLimit,
		MaxInFlight:       int64(opts.maxInFlight),
		CommitBytesPerSec: opts.commitRate,
	})

	st, err := backend.open(ctx, rc, &opts)
	if err != nil {
		return nil, translateError(err)
	}

	if dict == nil {
		schema, err := st.Schema(ctx)
		if err != nil {
			_ = st.Close()
			return nil, translateError(err)
		}
		if dict, err = schema.Dictionary(); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	builderOpts := []matrix.Option{matrix.WithStrategy(opts.strategy)}
	if opts.workers > 0 {
		builderOpts = append(builderOpts, matrix.WithWorkers(opts.workers))
	}

	return &Analyzer{
		dict:    dict,
		store:   st,
		builder: matrix.NewBuilder(dict, builderOpts...),
		rc:      rc,
		opts:    opts,
	}, nil
}

func (a *Analyzer) checkOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}

// Dictionary returns the dictionary the Analyzer serves.
func (a *Analyzer) Dictionary() *word.Dictionary {
	return a.dict
}

// Build computes the reduction matrix into the store. With WithResume it
// continues from the persisted progress; otherwise it replaces the table.
//
// The report is returned even on error and reflects the persisted progress.
func (a *Analyzer) Build(ctx context.Context) (*Report, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	s := scheduler.New(a.builder, a.store,
		scheduler.WithBatchSize(a.opts.batchSize),
		scheduler.WithResume(a.opts.resume),
		scheduler.WithRetry(a.opts.maxRetries, a.opts.backoff),
		scheduler.WithResources(a.rc),
		scheduler.WithLogger(a.opts.logger),
		scheduler.WithMetrics(a.opts.metricsCollector),
	)
	report, err := s.Run(ctx)
	return report, translateError(err)
}

// Query returns the words still possible after playing guess against answer,
// read from the built matrix.
func (a *Analyzer) Query(ctx context.Context, guess, answer string) ([]word.Word, error) {
	start := time.Now()
	words, err := a.query(ctx, guess, answer)
	a.opts.metricsCollector.RecordQuery(time.Since(start), err)
	return words, err
}

func (a *Analyzer) query(ctx context.Context, guess, answer string) ([]word.Word, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	g, ans, err := a.pair(guess, answer)
	if err != nil {
		return nil, err
	}
	words, err := a.store.Query(ctx, g, ans)
	return words, translateError(err)
}

// Reduce computes the words still possible after playing guess against
// answer without consulting the store.
func (a *Analyzer) Reduce(guess, answer string) ([]word.Word, error) {
	g, ans, err := a.pair(guess, answer)
	if err != nil {
		return nil, err
	}
	return feedback.Reduce(g, ans, a.dict)
}

// Encode returns the feedback pattern of guess against answer. Both words
// must have the dictionary's length but need not be in the dictionary.
func (a *Analyzer) Encode(guess, answer string) (feedback.Pattern, error) {
	g, err := word.Parse(guess, a.dict.WordLength())
	if err != nil {
		return nil, err
	}
	ans, err := word.Parse(answer, a.dict.WordLength())
	if err != nil {
		return nil, err
	}
	return feedback.Encode(g, ans)
}

func (a *Analyzer) pair(guess, answer string) (word.Word, word.Word, error) {
	g, _, err := a.dict.Lookup(guess)
	if err != nil {
		return "", "", err
	}
	ans, _, err := a.dict.Lookup(answer)
	if err != nil {
		return "", "", err
	}
	return g, ans, nil
}

// Status describes the stored table.
type Status struct {
	Words      int
	WordLength int
	BatchSize  int

	// NextOffset is the watermark: every guess column below it is committed.
	NextOffset int
	Complete   bool

	// Unresolved lists the committed cells whose computation failed.
	Unresolved []matrix.CellRef
}

// Status reports the progress of the stored table. It fails with ErrNotFound
// when no table exists.
func (a *Analyzer) Status(ctx context.Context) (*Status, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	schema, err := a.store.Schema(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	next, err := a.store.ReadProgress(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	unresolved, err := a.store.Unresolved(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return &Status{
		Words:      len(schema.Words),
		WordLength: schema.WordLength,
		BatchSize:  schema.BatchSize,
		NextOffset: next,
		Complete:   next == len(schema.Words),
		Unresolved: unresolved,
	}, nil
}

// ScoreSource selects where Score reads class sizes from.
type ScoreSource int

const (
	// FromMatrix reads the built matrix. Every cell must be committed.
	FromMatrix ScoreSource = iota
	// FromPartitions computes feedback partitions directly.
	FromPartitions
)

// Score ranks every dictionary word as a first guess by policy.
func (a *Analyzer) Score(ctx context.Context, policy score.Policy, source ScoreSource) ([]score.Score, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}

	var optFns []score.Option
	if a.opts.workers > 0 {
		optFns = append(optFns, score.WithWorkers(a.opts.workers))
	}

	var (
		scores []score.Score
		err    error
	)
	switch source {
	case FromMatrix:
		scores, err = score.FromStore(ctx, a.store, a.dict, optFns...)
	case FromPartitions:
		scores, err = score.FromPartitions(ctx, a.dict, optFns...)
	default:
		return nil, word.Invalid("source", fmt.Sprint(int(source)), "unknown score source")
	}
	if err != nil {
		return nil, translateError(err)
	}
	return score.Rank(scores, policy), nil
}

// Close releases the store. Close is idempotent.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.buildMu.Lock()
	defer a.buildMu.Unlock()
	return a.store.Close()
}
