// Package sqlite implements store.MatrixStore on an embedded SQLite database
// (modernc.org/sqlite, no cgo).
//
// Cells live in one table keyed by (answer, guess). A batch is written in a
// single transaction of INSERT ... ON CONFLICT DO UPDATE statements, which
// gives idempotent overwrites and all-or-nothing visibility.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/word"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS schema_words (
	idx  INTEGER PRIMARY KEY,
	word TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS reduction (
	answer     INTEGER NOT NULL,
	guess      INTEGER NOT NULL,
	words      BLOB,
	unresolved TEXT,
	PRIMARY KEY (answer, guess)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_reduction_unresolved ON reduction(guess, answer) WHERE unresolved IS NOT NULL;
CREATE TABLE IF NOT EXISTS progress (
	id          INTEGER PRIMARY KEY CHECK (id = 0),
	next_offset INTEGER NOT NULL
);
`

const upsertCellSQL = `
INSERT INTO reduction (answer, guess, words, unresolved) VALUES (?, ?, ?, ?)
ON CONFLICT(answer, guess) DO UPDATE SET
	words = excluded.words,
	unresolved = excluded.unresolved`

// Store is a SQLite-backed store.MatrixStore.
type Store struct {
	db *sql.DB

	mu     sync.Mutex // guards dict and schema
	dict   *word.Dictionary
	schema store.Schema
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway in-process database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return storageErr("initialize", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return storageErr("initialize", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return &store.StorageError{Op: op, Cause: err}
}

// CreateOrReplaceTable implements store.MatrixStore.
func (s *Store) CreateOrReplaceTable(ctx context.Context, schema store.Schema) error {
	dict, err := schema.Dictionary()
	if err != nil {
		return err
	}
	if dict.Fingerprint() != schema.Fingerprint {
		return fmt.Errorf("%w: fingerprint does not match words", store.ErrSchemaMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"reduction", "schema_words", "schema_meta", "progress"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}

		meta := map[string]string{
			"word_length": strconv.Itoa(schema.WordLength),
			"batch_size":  strconv.Itoa(schema.BatchSize),
			"fingerprint": strconv.FormatUint(schema.Fingerprint, 10),
		}
		for k, v := range meta {
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_meta (key, value) VALUES (?, ?)", k, v); err != nil {
				return err
			}
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO schema_words (idx, word) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, w := range schema.Words {
			if _, err := stmt.ExecContext(ctx, i, w); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO progress (id, next_offset) VALUES (0, 0)")
		return err
	})
	if err != nil {
		s.dict = nil
		return storageErr("create table", err)
	}

	s.dict = dict
	s.schema = schema
	s.schema.Words = append([]string(nil), schema.Words...)
	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// load reads the schema on first use. Callers hold s.mu.
func (s *Store) load(ctx context.Context) (*word.Dictionary, error) {
	if s.dict != nil {
		return s.dict, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM schema_meta")
	if err != nil {
		return nil, storageErr("load schema", err)
	}
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return nil, storageErr("load schema", err)
		}
		meta[k] = v
	}
	if err := rows.Close(); err != nil {
		return nil, storageErr("load schema", err)
	}
	if _, ok := meta["fingerprint"]; !ok {
		return nil, store.ErrNoTable
	}

	var schema store.Schema
	var perr error
	parseInt := func(key string) int {
		v, err := strconv.Atoi(meta[key])
		if err != nil && perr == nil {
			perr = fmt.Errorf("schema_meta %s: %w", key, err)
		}
		return v
	}
	schema.WordLength = parseInt("word_length")
	schema.BatchSize = parseInt("batch_size")
	schema.Fingerprint, err = strconv.ParseUint(meta["fingerprint"], 10, 64)
	if err != nil && perr == nil {
		perr = fmt.Errorf("schema_meta fingerprint: %w", err)
	}
	if perr != nil {
		return nil, storageErr("load schema", perr)
	}

	wrows, err := s.db.QueryContext(ctx, "SELECT word FROM schema_words ORDER BY idx")
	if err != nil {
		return nil, storageErr("load schema", err)
	}
	defer wrows.Close()
	for wrows.Next() {
		var w string
		if err := wrows.Scan(&w); err != nil {
			return nil, storageErr("load schema", err)
		}
		schema.Words = append(schema.Words, w)
	}
	if err := wrows.Err(); err != nil {
		return nil, storageErr("load schema", err)
	}

	dict, err := schema.Dictionary()
	if err != nil {
		return nil, storageErr("load schema", err)
	}
	if dict.Fingerprint() != schema.Fingerprint {
		return nil, storageErr("load schema", fmt.Errorf("%w: stored fingerprint does not match stored words", store.ErrSchemaMismatch))
	}

	s.dict, s.schema = dict, schema
	return dict, nil
}

func (s *Store) dictionary(ctx context.Context) (*word.Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// UpsertColumns implements store.MatrixStore.
func (s *Store) UpsertColumns(ctx context.Context, batch *matrix.Batch) error {
	dict, err := s.dictionary(ctx)
	if err != nil {
		return err
	}
	if err := store.CheckBatch(dict, batch); err != nil {
		return err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertCellSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for row := 0; row < batch.Rows(); row++ {
			for col := 0; col < batch.Width(); col++ {
				var (
					words      []byte
					unresolved sql.NullString
				)
				cell := batch.Cell(row, col)
				if cell.Resolved() {
					if words, err = cell.Set.MarshalBinary(); err != nil {
						return err
					}
				} else {
					unresolved = sql.NullString{String: reason(cell.Err), Valid: true}
				}
				if _, err := stmt.ExecContext(ctx, row, batch.Range.Start+col, words, unresolved); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("upsert columns", err)
	}
	return nil
}

func reason(err error) string {
	if err == nil {
		return "not computed"
	}
	var ce *matrix.ComputationError
	if errors.As(err, &ce) && ce.Cause != nil {
		return ce.Cause.Error()
	}
	return err.Error()
}

// Query implements store.MatrixStore.
func (s *Store) Query(ctx context.Context, guess, answer word.Word) ([]word.Word, error) {
	set, dict, err := s.cell(ctx, "query", guess, answer)
	if err != nil {
		return nil, err
	}
	return matrix.Words(dict, set), nil
}

// Count implements store.MatrixStore.
func (s *Store) Count(ctx context.Context, guess, answer word.Word) (int, error) {
	set, _, err := s.cell(ctx, "count", guess, answer)
	if err != nil {
		return 0, err
	}
	return set.Cardinality(), nil
}

func (s *Store) cell(ctx context.Context, op string, guess, answer word.Word) (*bitmap.Set, *word.Dictionary, error) {
	dict, err := s.dictionary(ctx)
	if err != nil {
		return nil, nil, err
	}
	g, gi, err := dict.Lookup(string(guess))
	if err != nil {
		return nil, nil, err
	}
	a, ai, err := dict.Lookup(string(answer))
	if err != nil {
		return nil, nil, err
	}

	var (
		data       []byte
		unresolved sql.NullString
	)
	err = s.db.QueryRowContext(ctx,
		"SELECT words, unresolved FROM reduction WHERE answer = ? AND guess = ?", ai, gi,
	).Scan(&data, &unresolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, g, a)
	}
	if err != nil {
		return nil, nil, storageErr(op, err)
	}

	if unresolved.Valid {
		return nil, nil, &store.UnresolvedError{
			Cell:  matrix.CellRef{Guess: g, Answer: a},
			Cause: &matrix.ComputationError{Guess: g, Answer: a, Cause: errors.New(unresolved.String)},
		}
	}

	set := bitmap.New()
	if err := set.UnmarshalBinary(data); err != nil {
		return nil, nil, storageErr(op, err)
	}
	return set, dict, nil
}

// ReadProgress implements store.MatrixStore.
func (s *Store) ReadProgress(ctx context.Context) (int, error) {
	if _, err := s.dictionary(ctx); err != nil {
		return 0, err
	}
	var offset int
	err := s.db.QueryRowContext(ctx, "SELECT next_offset FROM progress WHERE id = 0").Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("read progress", err)
	}
	return offset, nil
}

// WriteProgress implements store.MatrixStore.
func (s *Store) WriteProgress(ctx context.Context, offset int) error {
	dict, err := s.dictionary(ctx)
	if err != nil {
		return err
	}
	if offset < 0 || offset > dict.Len() {
		return fmt.Errorf("%w: progress %d outside [0,%d]", matrix.ErrInvalidRange, offset, dict.Len())
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO progress (id, next_offset) VALUES (0, ?)
ON CONFLICT(id) DO UPDATE SET next_offset = excluded.next_offset`, offset)
	if err != nil {
		return storageErr("write progress", err)
	}
	return nil
}

// Schema implements store.MatrixStore.
func (s *Store) Schema(ctx context.Context) (store.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx); err != nil {
		return store.Schema{}, err
	}
	out := s.schema
	out.Words = append([]string(nil), s.schema.Words...)
	return out, nil
}

// Unresolved implements store.MatrixStore.
func (s *Store) Unresolved(ctx context.Context) ([]matrix.CellRef, error) {
	dict, err := s.dictionary(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT answer, guess FROM reduction WHERE unresolved IS NOT NULL ORDER BY guess, answer")
	if err != nil {
		return nil, storageErr("unresolved", err)
	}
	defer rows.Close()

	var refs []matrix.CellRef
	for rows.Next() {
		var a, g int
		if err := rows.Scan(&a, &g); err != nil {
			return nil, storageErr("unresolved", err)
		}
		if a < 0 || a >= dict.Len() || g < 0 || g >= dict.Len() {
			return nil, storageErr("unresolved", fmt.Errorf("cell (%d,%d) outside the dictionary", a, g))
		}
		refs = append(refs, matrix.CellRef{Guess: dict.At(g), Answer: dict.At(a)})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("unresolved", err)
	}
	return refs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.MatrixStore = (*Store)(nil)
