package bpe

import "github.com/pkg/errors"

var (
	// ErrConfiguration is returned (wrapped) for invalid tokenizer or training configuration:
	// a target vocabulary size too small for the bytes plus special tokens, an unusable
	// pre-tokenizer pattern, or special literals that collide with other vocabulary values.
	ErrConfiguration = errors.New("bpe: invalid configuration")

	// ErrVocabularyLookup is returned (wrapped) when decoding a token id that the vocabulary doesn't hold.
	ErrVocabularyLookup = errors.New("bpe: token id not in vocabulary")
)

func configErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}
