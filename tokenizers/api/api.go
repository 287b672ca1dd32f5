// Package api defines the Tokenizer API.
// It's kept apart from the implementations so that tools (like the bpe command) can hold any of them
// behind the same interface.
package api

import "fmt"

// TokenSpan represents the byte span of a token in the original text.
// Start and End are byte offsets (not rune offsets), suitable for slicing
// Go strings directly: originalText[span.Start:span.End].
type TokenSpan struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// EncodingResult contains tokens with their spans in the original text.
type EncodingResult struct {
	IDs   []int       // token IDs
	Spans []TokenSpan // byte spans for each token (use originalText[span.Start:span.End] to extract)
}

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
//
// Decode reports an error for ids the tokenizer doesn't know, since those usually come from a different
// vocabulary.
//
// It also allows mapping of special tokens: tokens with a common semantic (like padding) but that
// may map to different ids (int) for different tokenizers.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) (string, error)

	// SpecialTokenID returns ID for given special token if registered, or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// TokenizerWithSpans extends Tokenizer with span tracking capability.
type TokenizerWithSpans interface {
	Tokenizer
	// EncodeWithSpans returns tokens along with their byte spans in the original text.
	EncodeWithSpans(text string) EncodingResult
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSpecialTokensCount
)

var specialTokenNames = [...]string{
	TokBeginningOfSentence: "beginning_of_sentence",
	TokEndOfSentence:       "end_of_sentence",
	TokUnknown:             "unknown",
	TokPad:                 "pad",
	TokMask:                "mask",
	TokClassification:      "classification",
	TokSpecialTokensCount:  "special_tokens_count",
}

// String implements fmt.Stringer.
func (t SpecialToken) String() string {
	if t < 0 || int(t) >= len(specialTokenNames) {
		return fmt.Sprintf("SpecialToken(%d)", int(t))
	}
	return specialTokenNames[t]
}

// Config maps the semantic special tokens to the literal strings a given vocabulary uses for them.
// Empty fields mean the role is not used.
type Config struct {
	BosToken  string
	EosToken  string
	UnkToken  string
	PadToken  string
	MaskToken string
	ClsToken  string
}

// Literal returns the literal configured for the given special token, and whether there is one.
func (c *Config) Literal(token SpecialToken) (string, bool) {
	if c == nil {
		return "", false
	}
	var s string
	switch token {
	case TokBeginningOfSentence:
		s = c.BosToken
	case TokEndOfSentence:
		s = c.EosToken
	case TokUnknown:
		s = c.UnkToken
	case TokPad:
		s = c.PadToken
	case TokMask:
		s = c.MaskToken
	case TokClassification:
		s = c.ClsToken
	}
	return s, s != ""
}
