package bpe

import (
	"github.com/dlclark/regexp2"
	"k8s.io/klog/v2"
)

// DefaultPattern is the splitting rule used when none is configured. Alternatives are tried in order:
// a few English contraction suffixes, optional whitespace followed by a run of letters, a run of digits,
// and finally any single character that is not a word character.
//
// \w, \d and \s are Unicode aware.
const DefaultPattern = `'s|'t|'ll|'ve|'r|\s*[^\d\W]+|[\d]+|[^\w]`

// Chunk is one piece of pre-tokenized text, with its byte offsets in the original string.
type Chunk struct {
	Text       string
	Start, End int
}

// PreTokenizer splits text into chunks using one regular expression. Merges never cross chunk boundaries.
//
// It holds no mutable state and is safe for concurrent use.
type PreTokenizer struct {
	pattern string
	re      *regexp2.Regexp
}

// NewPreTokenizer compiles the given pattern. An empty pattern selects DefaultPattern.
//
// Patterns that don't compile, or that match the empty string, are rejected with ErrConfiguration.
func NewPreTokenizer(pattern string) (*PreTokenizer, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, configErrorf("pre-tokenizer pattern %q: %v", pattern, err)
	}
	if empty, _ := re.MatchString(""); empty {
		return nil, configErrorf("pre-tokenizer pattern %q matches the empty string", pattern)
	}
	return &PreTokenizer{pattern: pattern, re: re}, nil
}

// Pattern returns the regular expression used for splitting.
func (p *PreTokenizer) Pattern() string {
	return p.pattern
}

// Split returns the chunks of text. Concatenating them gives back text exactly.
func (p *PreTokenizer) Split(text string) []string {
	chunks := p.SplitWithSpans(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// SplitWithSpans is like Split, but also returns the byte offsets of each chunk.
//
// Matching is left to right, non-overlapping, first alternative wins. Any text the pattern skips over
// becomes a chunk of its own, so chunks always partition the input.
func (p *PreTokenizer) SplitWithSpans(text string) []Chunk {
	if text == "" {
		return nil
	}

	// regexp2 reports rune positions; offsets[i] is the byte offset of rune i.
	// Slicing text (rather than using the match string) keeps invalid UTF-8 bytes intact.
	runes := []rune(text)
	offsets := make([]int, 0, len(runes)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	var chunks []Chunk
	emit := func(from, to int) {
		if from < to {
			start, end := offsets[from], offsets[to]
			chunks = append(chunks, Chunk{Text: text[start:end], Start: start, End: end})
		}
	}

	var pos int
	m, err := p.re.FindRunesMatch(runes)
	for m != nil && err == nil {
		if m.Length > 0 && m.Index >= pos {
			emit(pos, m.Index)
			emit(m.Index, m.Index+m.Length)
			pos = m.Index + m.Length
		}
		m, err = p.re.FindNextMatch(m)
	}
	if err != nil {
		klog.Warningf("pre-tokenizer stopped matching at rune %d: %v", pos, err)
	}
	emit(pos, len(runes))
	return chunks
}
