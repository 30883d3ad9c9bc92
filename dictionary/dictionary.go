// Package dictionary loads the ordered word lists the reduction matrix is
// built over.
//
// Plain text lists hold one word per line; blank lines and lines starting
// with '#' are ignored. JSON lists are a single array of strings. Both keep
// the source order, which fixes the matrix's row and column order.
package dictionary

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/wordgain/codec"
	"github.com/hupe1980/wordgain/word"
)

//go:embed sample.txt
var sampleText string

// Options configures loading.
type Options struct {
	// Length is the word length. Defaults to word.DefaultLength.
	Length int

	// SkipInvalid drops entries of the wrong length or with characters
	// outside a-z instead of failing.
	SkipInvalid bool

	// Dedupe keeps the first occurrence of repeated words instead of failing.
	Dedupe bool

	// Codec decodes JSON lists. Defaults to codec.Default.
	Codec codec.Codec
}

// Option configures loading.
type Option func(*Options)

// WithLength sets the word length.
func WithLength(n int) Option {
	return func(o *Options) { o.Length = n }
}

// WithSkipInvalid drops invalid entries.
func WithSkipInvalid() Option {
	return func(o *Options) { o.SkipInvalid = true }
}

// WithDedupe keeps only the first occurrence of each word.
func WithDedupe() Option {
	return func(o *Options) { o.Dedupe = true }
}

// WithCodec sets the JSON codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

func options(optFns []Option) Options {
	opts := Options{Length: word.DefaultLength, Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return opts
}

// ReadText reads a plain text list.
func ReadText(r io.Reader, optFns ...Option) (*word.Dictionary, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return build(entries, options(optFns))
}

// ReadJSON reads a JSON array of words.
func ReadJSON(r io.Reader, optFns ...Option) (*word.Dictionary, error) {
	opts := options(optFns)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var entries []string
	if err := opts.Codec.Unmarshal(data, &entries); err != nil {
		return nil, word.Invalid("dictionary", "", "not a JSON array of strings: "+err.Error())
	}
	return build(entries, opts)
}

// Load reads the list at path. Files ending in .json are read as JSON, all
// others as plain text.
func Load(path string, optFns ...Option) (*word.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(f, optFns...)
	}
	return ReadText(f, optFns...)
}

// Sample returns the built-in list of common five-letter words.
func Sample() *word.Dictionary {
	d, err := ReadText(strings.NewReader(sampleText))
	if err != nil {
		panic(fmt.Errorf("built-in dictionary: %w", err))
	}
	return d
}

func build(entries []string, opts Options) (*word.Dictionary, error) {
	if !opts.SkipInvalid && !opts.Dedupe {
		return word.NewDictionary(opts.Length, entries)
	}

	seen := make(map[word.Word]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for i, e := range entries {
		w, err := word.Parse(e, opts.Length)
		if err != nil {
			if opts.SkipInvalid {
				continue
			}
			return nil, fmt.Errorf("dictionary entry %d: %w", i, err)
		}
		if _, dup := seen[w]; dup && opts.Dedupe {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, string(w))
	}
	return word.NewDictionary(opts.Length, out)
}
