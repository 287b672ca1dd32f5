package bpe

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
)

// Vocabulary is the bijective mapping between token ids and token values (byte strings).
//
// Ids are dense from 0. Ids 0-255 are the single bytes; a trained vocabulary then holds the merged
// values, the special tokens and, last, the unknown token.
//
// A Vocabulary is never modified once built, so it can be shared by any number of tokenizers and goroutines.
type Vocabulary struct {
	values []string
	ids    map[string]int

	numMerges int
	specials  []string
	unknownID int
}

// NewVocabulary returns the base vocabulary: 256 entries, one per byte value.
func NewVocabulary() *Vocabulary {
	values := make([]string, NumBytes)
	for b := range NumBytes {
		values[b] = string([]byte{byte(b)})
	}
	return newVocabulary(values, 0, nil, -1)
}

// NewVocabularyFromValues builds a vocabulary where values[id] is the value of token id, as when
// loading it from storage.
//
// Values must be distinct. The loaded vocabulary carries no special tokens and no unknown token:
// those are not part of the stored mapping.
func NewVocabularyFromValues(values []string) (*Vocabulary, error) {
	seen := make(map[string]int, len(values))
	for id, value := range values {
		if prev, found := seen[value]; found {
			return nil, errors.Errorf("token value %q is used by both ids %d and %d", value, prev, id)
		}
		seen[value] = id
	}
	v := &Vocabulary{
		values:    slices.Clone(values),
		ids:       seen,
		unknownID: -1,
	}
	return v, nil
}

// newVocabulary takes ownership of values, which must be distinct.
func newVocabulary(values []string, numMerges int, specials []string, unknownID int) *Vocabulary {
	v := &Vocabulary{
		values:    values,
		ids:       make(map[string]int, len(values)),
		numMerges: numMerges,
		specials:  specials,
		unknownID: unknownID,
	}
	for id, value := range values {
		v.ids[value] = id
	}
	return v
}

// Size returns the number of entries in the vocabulary.
func (v *Vocabulary) Size() int {
	return len(v.values)
}

// IDOf returns the id of the token with the given value.
func (v *Vocabulary) IDOf(value string) (id int, found bool) {
	id, found = v.ids[value]
	return
}

// ValueOf returns the value of the token with the given id.
func (v *Vocabulary) ValueOf(id int) (value string, found bool) {
	if id < 0 || id >= len(v.values) {
		return "", false
	}
	return v.values[id], true
}

// All iterates over (id, value) in increasing id order.
func (v *Vocabulary) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for id, value := range v.values {
			if !yield(id, value) {
				return
			}
		}
	}
}

// NumMerges returns how many tokens training created by merging. It is 0 for loaded vocabularies,
// which don't record how their values came to be.
func (v *Vocabulary) NumMerges() int {
	return v.numMerges
}

// SpecialTokens returns the special token literals in id order. Empty for base and loaded vocabularies.
func (v *Vocabulary) SpecialTokens() []string {
	return slices.Clone(v.specials)
}

// UnknownID returns the id of the unknown token, if the vocabulary was trained with one.
func (v *Vocabulary) UnknownID() (int, bool) {
	return v.unknownID, v.unknownID >= 0
}

// Equal reports whether both vocabularies hold exactly the same id to value mapping.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	return slices.Equal(v.values, other.values)
}
