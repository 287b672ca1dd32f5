// Package bpe implements a byte-pair-encoding tokenizer that can learn its own vocabulary.
//
// Training splits the corpus into chunks with a PreTokenizer, maps every chunk to its UTF-8 bytes
// (token ids 0-255), and then repeatedly merges the most frequent adjacent pair of tokens into a new
// token, until the requested vocabulary size is reached. Merges never cross chunk boundaries.
//
// Encoding is a single greedy pass over the input that matches the longest run of characters whose
// bytes are a vocabulary value; decoding concatenates the values of the ids.
//
// Example:
//
//	tok, err := bpe.New(bpe.WithSpecialTokens("<|startoftext|>", "<|endoftext|>"))
//	if err != nil { ... }
//	if err := tok.Train(corpus, 1000); err != nil { ... }
//	ids := tok.Encode("example text")
//	text, err := tok.Decode(ids)
package bpe

import (
	"slices"

	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/pkg/errors"
)

// DefaultUnknownToken is the literal of the unknown token, used unless another one is configured.
const DefaultUnknownToken = "<|unknown|>"

// Tokenizer holds a vocabulary and the configuration used to train it and to encode with it.
//
// Encode, EncodeWithSpans and Decode only read the tokenizer and can be called concurrently.
// Train and SetSpecialTokens modify it and must not run concurrently with anything else on the same
// Tokenizer. Separate Tokenizer instances are independent.
type Tokenizer struct {
	pre          *PreTokenizer
	config       *api.Config
	specials     []string
	unknown      string
	byteFallback bool
	vocab        *Vocabulary
}

// Compile time assert that Tokenizer implements api.TokenizerWithSpans interface.
var _ api.TokenizerWithSpans = &Tokenizer{}

// Option configures a Tokenizer created with New.
type Option func(t *Tokenizer) error

// New creates a Tokenizer. Without options it uses DefaultPattern, has no special tokens and holds the
// base vocabulary of 256 byte tokens.
func New(opts ...Option) (*Tokenizer, error) {
	t := &Tokenizer{
		unknown: DefaultUnknownToken,
		vocab:   NewVocabulary(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.pre == nil {
		pre, err := NewPreTokenizer(DefaultPattern)
		if err != nil {
			return nil, err
		}
		t.pre = pre
	}
	return t, nil
}

// WithPattern sets the pre-tokenizer splitting rule. See NewPreTokenizer.
func WithPattern(pattern string) Option {
	return func(t *Tokenizer) error {
		pre, err := NewPreTokenizer(pattern)
		if err != nil {
			return err
		}
		t.pre = pre
		return nil
	}
}

// WithSpecialTokens sets the special tokens, in the order their ids will be assigned by Train.
func WithSpecialTokens(tokens ...string) Option {
	return func(t *Tokenizer) error {
		return t.SetSpecialTokens(tokens, "")
	}
}

// WithUnknownToken sets the literal of the unknown token.
func WithUnknownToken(literal string) Option {
	return func(t *Tokenizer) error {
		if literal == "" {
			return configErrorf("the unknown token literal can't be empty")
		}
		return t.SetSpecialTokens(t.specials, literal)
	}
}

// WithVocabulary starts the tokenizer with the given vocabulary, typically one loaded from storage.
func WithVocabulary(vocab *Vocabulary) Option {
	return func(t *Tokenizer) error {
		if vocab == nil {
			return errors.New("nil vocabulary")
		}
		t.vocab = vocab
		return nil
	}
}

// WithByteFallback makes Encode emit the byte tokens of characters that aren't in the vocabulary,
// instead of the unknown token.
func WithByteFallback() Option {
	return func(t *Tokenizer) error {
		t.byteFallback = true
		return nil
	}
}

// WithConfig maps the semantic special tokens (api.SpecialToken) to literals, for SpecialTokenID.
// A non-empty UnkToken also becomes the unknown token literal.
func WithConfig(config *api.Config) Option {
	return func(t *Tokenizer) error {
		t.config = config
		if config != nil && config.UnkToken != "" {
			return t.SetSpecialTokens(t.specials, config.UnkToken)
		}
		return nil
	}
}

// SetSpecialTokens configures the special tokens and, if unknown is not empty, the unknown token literal.
// Call it before Train: it has no effect on an already built vocabulary, except that Encode matches the
// configured special literals that the vocabulary holds as whole tokens.
//
// Literals must be non-empty and distinct, and can't be a single byte (those are already taken by the
// byte tokens). Violations return an error wrapping ErrConfiguration and leave the tokenizer unchanged.
func (t *Tokenizer) SetSpecialTokens(tokens []string, unknown string) error {
	if unknown == "" {
		unknown = t.unknown
	}
	if len(unknown) <= 1 {
		return configErrorf("unknown token literal %q must be at least 2 bytes long", unknown)
	}
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		switch {
		case len(token) <= 1:
			return configErrorf("special token %q must be at least 2 bytes long", token)
		case seen[token]:
			return configErrorf("special token %q given more than once", token)
		case token == unknown:
			return configErrorf("special token %q is also the unknown token", token)
		}
		seen[token] = true
	}
	t.specials = slices.Clone(tokens)
	t.unknown = unknown
	return nil
}

// SpecialTokens returns the configured special token literals, in order.
func (t *Tokenizer) SpecialTokens() []string {
	return slices.Clone(t.specials)
}

// UnknownToken returns the configured unknown token literal.
func (t *Tokenizer) UnknownToken() string {
	return t.unknown
}

// Vocabulary returns the current vocabulary.
func (t *Tokenizer) Vocabulary() *Vocabulary {
	return t.vocab
}

// PreTokenizer returns the pre-tokenizer used for training.
func (t *Tokenizer) PreTokenizer() *PreTokenizer {
	return t.pre
}

// VocabSize returns the number of tokens in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return t.vocab.Size()
}

// UnknownID returns the id used for characters missing from the vocabulary.
//
// A trained vocabulary knows its unknown token. For a loaded one, the configured unknown literal is
// looked up. The base vocabulary has none: Encode then falls back to byte tokens.
func (t *Tokenizer) UnknownID() (int, bool) {
	if id, found := t.vocab.UnknownID(); found {
		return id, true
	}
	return t.vocab.IDOf(t.unknown)
}

// SpecialTokenID returns the ID for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	if token == api.TokUnknown {
		if id, found := t.UnknownID(); found {
			return id, nil
		}
	}
	if literal, ok := t.config.Literal(token); ok {
		if id, found := t.vocab.IDOf(literal); found {
			return id, nil
		}
	}
	return 0, errors.Errorf("special token %s not found", token)
}
