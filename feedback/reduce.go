package feedback

import (
	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/word"
)

// Reduce returns the words of dict still consistent with observing
// Encode(guess, answer). The result keeps dictionary order, always contains
// answer when dict does, and never aliases dict.
func Reduce(guess, answer word.Word, dict *word.Dictionary) ([]word.Word, error) {
	set, err := ReduceSet(guess, answer, dict)
	if err != nil {
		return nil, err
	}
	out := make([]word.Word, 0, set.Cardinality())
	for id := range set.Iterator() {
		out = append(out, dict.At(int(id)))
	}
	return out, nil
}

// ReduceSet is Reduce returning dictionary indices.
func ReduceSet(guess, answer word.Word, dict *word.Dictionary) (*bitmap.Set, error) {
	if err := checkDictPair(guess, answer, dict); err != nil {
		return nil, err
	}
	pattern := encode(guess, answer)
	set := bitmap.New()
	for i := 0; i < dict.Len(); i++ {
		if isConsistent(guess, pattern, dict.At(i)) {
			set.Add(uint32(i))
		}
	}
	set.Optimize()
	return set, nil
}

// Codes returns, for every dictionary word in order, the Pattern.Code that
// guess receives against it.
func Codes(guess word.Word, dict *word.Dictionary) ([]uint32, error) {
	if err := guess.Validate(); err != nil {
		return nil, err
	}
	if len(guess) != dict.WordLength() {
		return nil, word.Invalid("guess", string(guess), "length does not match the dictionary")
	}
	codes := make([]uint32, dict.Len())
	for i := range codes {
		codes[i] = encode(guess, dict.At(i)).Code()
	}
	return codes, nil
}

// Partition groups the dictionary by the pattern each word produces for guess.
// The result maps Pattern.Code to the member indices of that class. Every
// class equals ReduceSet(guess, a, dict) for any member a.
func Partition(guess word.Word, dict *word.Dictionary) (map[uint32]*bitmap.Set, error) {
	codes, err := Codes(guess, dict)
	if err != nil {
		return nil, err
	}
	return Group(codes), nil
}

// Group turns per-word codes into classes of dictionary indices.
func Group(codes []uint32) map[uint32]*bitmap.Set {
	classes := make(map[uint32]*bitmap.Set)
	for i, code := range codes {
		set, ok := classes[code]
		if !ok {
			set = bitmap.New()
			classes[code] = set
		}
		set.Add(uint32(i))
	}
	for _, set := range classes {
		set.Optimize()
	}
	return classes
}

func checkDictPair(guess, answer word.Word, dict *word.Dictionary) error {
	if err := word.CheckPair(guess, answer); err != nil {
		return err
	}
	if len(guess) != dict.WordLength() {
		return word.Invalid("guess", string(guess), "length does not match the dictionary")
	}
	return nil
}
