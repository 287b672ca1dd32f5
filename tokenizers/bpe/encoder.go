package bpe

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/pkg/errors"
)

// Encode converts text to a sequence of token ids.
//
// It never fails: characters missing from the vocabulary become the unknown token (or their byte tokens,
// see WithByteFallback and UnknownID).
func (t *Tokenizer) Encode(text string) []int {
	return t.EncodeWithSpans(text).IDs
}

// EncodeWithSpans returns the token ids of text along with their byte spans in text.
//
// Configured special tokens held by the vocabulary are matched first, as whole tokens. The remaining
// text is encoded in one forward pass: the current fragment is extended one character at a time while the
// extended fragment is still a vocabulary value; when it stops being one, the fragment's id is emitted and
// a new fragment starts at that character. Emitted ids are never revisited.
func (t *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	var result api.EncodingResult
	emit := func(id, start, end int) {
		result.IDs = append(result.IDs, id)
		result.Spans = append(result.Spans, api.TokenSpan{Start: start, End: end})
	}
	for _, frag := range t.fragments(text) {
		if frag.id >= 0 {
			emit(frag.id, frag.start, frag.end)
			continue
		}
		t.encodeGreedy(text[frag.start:frag.end], frag.start, emit)
	}
	return result
}

// fragment of the input: either a special token (id >= 0) or text still to encode (id = -1).
type fragment struct {
	start, end int
	id         int
}

// activeSpecials returns the configured special tokens that are in the vocabulary, longest first.
func (t *Tokenizer) activeSpecials() []string {
	var specials []string
	for _, special := range t.specials {
		if _, found := t.vocab.IDOf(special); found {
			specials = append(specials, special)
		}
	}
	slices.SortStableFunc(specials, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return specials
}

func (t *Tokenizer) fragments(text string) []fragment {
	frags := []fragment{{start: 0, end: len(text), id: -1}}
	for _, special := range t.activeSpecials() {
		id, _ := t.vocab.IDOf(special)
		next := make([]fragment, 0, len(frags))
		for _, frag := range frags {
			if frag.id >= 0 {
				next = append(next, frag)
				continue
			}
			pos := frag.start
			for {
				i := strings.Index(text[pos:frag.end], special)
				if i < 0 {
					break
				}
				if i > 0 {
					next = append(next, fragment{start: pos, end: pos + i, id: -1})
				}
				next = append(next, fragment{start: pos + i, end: pos + i + len(special), id: id})
				pos += i + len(special)
			}
			if pos < frag.end {
				next = append(next, fragment{start: pos, end: frag.end, id: -1})
			}
		}
		frags = next
	}
	return frags
}

// encodeGreedy encodes s, whose first byte is at offset base of the original text.
func (t *Tokenizer) encodeGreedy(s string, base int, emit func(id, start, end int)) {
	// s[start:end] is the current fragment; when not empty it's always a vocabulary value, and end is
	// the position of the next character.
	var start, end int
	flush := func() {
		if end > start {
			id, _ := t.vocab.IDOf(s[start:end])
			emit(id, base+start, base+end)
		}
	}
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		next := i + size
		if end > start {
			if _, found := t.vocab.IDOf(s[start:next]); found {
				end, i = next, next
				continue
			}
			flush()
		}
		if _, found := t.vocab.IDOf(s[i:next]); found {
			start, end = i, next
		} else {
			t.encodeUnknown(s[i:next], base+i, emit)
			start, end = next, next
		}
		i = next
	}
	flush()
}

// encodeUnknown emits the token(s) for a character that is not in the vocabulary.
func (t *Tokenizer) encodeUnknown(char string, offset int, emit func(id, start, end int)) {
	if !t.byteFallback {
		if unknownID, found := t.UnknownID(); found {
			emit(unknownID, offset, offset+len(char))
			return
		}
	}
	for i := 0; i < len(char); i++ {
		emit(int(char[i]), offset+i, offset+i+1)
	}
}

// Decode converts token ids back to text, concatenating their values.
//
// An id that is not in the vocabulary makes it fail with an error wrapping ErrVocabularyLookup: such ids
// usually come from a different vocabulary, and are reported rather than skipped.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	var sb strings.Builder
	for i, id := range ids {
		value, found := t.vocab.ValueOf(id)
		if !found {
			return "", errors.Wrapf(ErrVocabularyLookup, "token id %d at position %d (vocabulary has %d tokens)",
				id, i, t.vocab.Size())
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}
