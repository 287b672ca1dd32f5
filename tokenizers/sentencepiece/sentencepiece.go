// Package sentencepiece implements an api.Tokenizer based on a SentencePiece model file.
//
// It's used as a reference to compare the bpe vocabularies against (see the "compare" command).
package sentencepiece

import (
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/pkg/errors"
)

// New creates a SentencePiece tokenizer from a "tokenizer.model" file, which must be a
// SentencePiece Model proto.
func New(modelPath string) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", modelPath)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
	}, nil
}

// Tokenizer implements api.TokenizerWithSpans with the SentencePiece tokenizer by Google.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo
}

// Compile time assert that sentencepiece.Tokenizer implements api.TokenizerWithSpans interface.
var _ api.TokenizerWithSpans = &Tokenizer{}

// Encode returns the text encoded into a sequence of ids.
func (p *Tokenizer) Encode(text string) []int {
	tokens := p.Processor.Encode(text)
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids
}

// EncodeWithSpans returns the text encoded into a sequence of ids along with their byte spans.
func (p *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	tokens := p.Processor.Encode(text)
	ids := make([]int, len(tokens))
	pieces := make([]string, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
		pieces[i] = tok.Text
	}
	return api.EncodingResult{IDs: ids, Spans: alignPieces(text, pieces)}
}

// metaspace is the character SentencePiece uses in place of a space (U+2581).
const metaspace = "▁"

// alignPieces finds the byte span of every piece in text, scanning forward.
//
// SentencePiece normalizes the input, so a piece can't always be found verbatim: it then
// takes as many bytes as the piece has, without going past the end of text.
func alignPieces(text string, pieces []string) []api.TokenSpan {
	spans := make([]api.TokenSpan, len(pieces))
	pos := 0
	for i, piece := range pieces {
		content, hasSpace := strings.CutPrefix(piece, metaspace)
		if hasSpace {
			for pos < len(text) && strings.IndexByte(" \t\n\r", text[pos]) >= 0 {
				pos++
			}
		}
		if content == "" {
			// Only the space: point at the whitespace just skipped, if any.
			start := pos
			if hasSpace && start > 0 {
				start--
			}
			spans[i] = api.TokenSpan{Start: start, End: pos}
			continue
		}
		start := pos
		if idx := strings.Index(text[min(pos, len(text)):], content); idx >= 0 {
			start = pos + idx
			pos = start + len(content)
		} else {
			pos = min(pos+len(content), len(text))
		}
		spans[i] = api.TokenSpan{Start: start, End: pos}
	}
	return spans
}

// Decode returns the text from a sequence of ids. It fails if an id is not in the model's vocabulary.
func (p *Tokenizer) Decode(ids []int) (string, error) {
	for i, id := range ids {
		if id < 0 || id >= p.Info.VocabularySize {
			return "", errors.Errorf("token id %d at position %d is not in the SentencePiece vocabulary of %d tokens",
				id, i, p.Info.VocabularySize)
		}
	}
	return p.Processor.Decode(ids), nil
}

// VocabSize returns the number of pieces in the model.
func (p *Tokenizer) VocabSize() int {
	return p.Info.VocabularySize
}

// SpecialTokenID returns the token for the given symbol, or an error if not known.
func (p *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	var id int
	switch token {
	case api.TokUnknown:
		id = p.Info.UnknownID
	case api.TokPad:
		id = p.Info.PadID
	case api.TokBeginningOfSentence:
		id = p.Info.BeginningOfSentenceID
	case api.TokEndOfSentence:
		id = p.Info.EndOfSentenceID
	default:
		return 0, errors.Errorf("unknown special token: %s (%d)", token, int(token))
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s is not defined by the model", token)
	}
	return id, nil
}
