package sentencepiece

import (
	"os"
	"testing"

	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelFromEnv returns a tokenizer for the model in $SPM_MODEL, or skips the test.
func modelFromEnv(t *testing.T) *Tokenizer {
	t.Helper()
	path := os.Getenv("SPM_MODEL")
	if path == "" {
		t.Skip("set SPM_MODEL to a SentencePiece tokenizer.model file to run this test")
	}
	tok, err := New(path)
	require.NoError(t, err)
	return tok
}

func TestAlignPieces(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		pieces []string
		want   []api.TokenSpan
	}{
		{
			name:   "words",
			text:   "hello world",
			pieces: []string{"▁hello", "▁world"},
			want:   []api.TokenSpan{{Start: 0, End: 5}, {Start: 6, End: 11}},
		},
		{
			name:   "sub-words",
			text:   "tokenization",
			pieces: []string{"▁token", "ization"},
			want:   []api.TokenSpan{{Start: 0, End: 5}, {Start: 5, End: 12}},
		},
		{
			name:   "lone space",
			text:   "a  b",
			pieces: []string{"▁a", "▁", "b"},
			want:   []api.TokenSpan{{Start: 0, End: 1}, {Start: 2, End: 3}, {Start: 3, End: 4}},
		},
		{
			name:   "normalized piece",
			text:   "ab",
			pieces: []string{"▁AB"},
			want:   []api.TokenSpan{{Start: 0, End: 2}},
		},
		{
			name: "empty",
			text: "",
			want: []api.TokenSpan{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alignPieces(tt.text, tt.pieces))
		})
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New("/nonexistent/tokenizer.model")
	assert.Error(t, err)
}

func TestEncodeWithSpans_MatchesEncode(t *testing.T) {
	tok := modelFromEnv(t)
	for _, input := range []string{
		"hello",
		"The quick brown fox jumps over the lazy dog.",
		"Multiple  spaces   here",
		"Unicode: 你好世界",
	} {
		t.Run(input, func(t *testing.T) {
			result := tok.EncodeWithSpans(input)
			assert.Equal(t, tok.Encode(input), result.IDs)
			for _, span := range result.Spans {
				assert.True(t, span.Start >= 0 && span.Start <= span.End && span.End <= len(input),
					"invalid span %+v", span)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tok := modelFromEnv(t)
	ids := tok.Encode("hello world")
	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = tok.Decode([]int{tok.VocabSize()})
	assert.Error(t, err)

	id, err := tok.SpecialTokenID(api.TokUnknown)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, 0)
}
