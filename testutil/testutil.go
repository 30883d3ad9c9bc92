package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/wordgain/word"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Word returns a random word of the given length with letters drawn from
// alphabet.
func (r *RNG) Word(length int, alphabet string) word.Word {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return word.Word(b)
}

// Dictionary returns a dictionary of up to n distinct random words. It stops
// early when the alphabet cannot produce n distinct words in a reasonable
// number of draws.
func (r *RNG) Dictionary(n, length int, alphabet string) *word.Dictionary {
	seen := make(map[word.Word]struct{}, n)
	words := make([]string, 0, n)
	for attempts := 0; len(words) < n && attempts < n*50; attempts++ {
		w := r.Word(length, alphabet)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, string(w))
	}
	return word.MustDictionary(length, words...)
}

// AllWords enumerates every word of the given length over alphabet in
// lexicographic order.
func AllWords(length int, alphabet string) []word.Word {
	if length == 0 {
		return nil
	}
	total := 1
	for i := 0; i < length; i++ {
		total *= len(alphabet)
	}
	out := make([]word.Word, 0, total)
	b := make([]byte, length)
	for n := 0; n < total; n++ {
		v := n
		for i := length - 1; i >= 0; i-- {
			b[i] = alphabet[v%len(alphabet)]
			v /= len(alphabet)
		}
		out = append(out, word.Word(b))
	}
	return out
}

// SampleWords is a small five-letter dictionary with plenty of shared and
// repeated letters.
var SampleWords = []string{
	"abcde", "edcba", "sheep", "speed", "sassy", "mesas", "crane", "slate",
	"geese", "eerie", "llama", "hello", "spell", "belle", "steep", "sweep",
	"peeps", "bases", "asses", "seams",
}

// SampleDictionary returns SampleWords as a dictionary.
func SampleDictionary() *word.Dictionary {
	return word.MustDictionary(word.DefaultLength, SampleWords...)
}
