// Package testutil provides testing utilities for wordgain.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG for generating random words and dictionaries,
// plus small fixed word lists for table tests.
//
// # Random Words
//
//	rng := testutil.NewRNG(seed)
//	w := rng.Word(5, "abcde")        // letters drawn from a small alphabet
//	dict := rng.Dictionary(200, 5, "abcdefgh")
//
// Small alphabets force duplicate letters, which is where feedback rules get
// subtle.
package testutil
