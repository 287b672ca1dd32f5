package bpe

import (
	"testing"

	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedTokenizer(t *testing.T, corpus string, targetSize int, opts ...Option) *Tokenizer {
	t.Helper()
	tok := newTestTokenizer(t, opts...)
	require.NoError(t, tok.Train(corpus, targetSize))
	return tok
}

func TestEncode_Greedy(t *testing.T) {
	tok := trainedTokenizer(t, "aaaa", 257)
	assert.Equal(t, []int{256, 256}, tok.Encode("aaaa"))
	assert.Equal(t, []int{256, 97}, tok.Encode("aaa"))
	assert.Equal(t, []int{97}, tok.Encode("a"))
	assert.Equal(t, []int{98, 256}, tok.Encode("baa"))
}

func TestEncode_Empty(t *testing.T) {
	tok := trainedTokenizer(t, tinyStory, 300)
	assert.Empty(t, tok.Encode(""))
	text, err := tok.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestEncode_UnknownCharacter(t *testing.T) {
	tok := trainedTokenizer(t, "aaaa", 257)
	unknownID, found := tok.UnknownID()
	require.True(t, found)

	// A multi-byte character missing from the vocabulary is a single unknown token.
	assert.Equal(t, []int{unknownID}, tok.Encode("é"))
	assert.Equal(t, []int{256, unknownID, 97}, tok.Encode("aaéa"))

	text, err := tok.Decode(tok.Encode("aaéa"))
	require.NoError(t, err)
	assert.Equal(t, "aa"+DefaultUnknownToken+"a", text)
}

func TestEncode_ByteFallback(t *testing.T) {
	tok := trainedTokenizer(t, "aaaa", 257, WithByteFallback())
	ids := tok.Encode("aaé")
	assert.Equal(t, []int{256, 0xc3, 0xa9}, ids)
	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "aaé", text)
}

func TestEncode_BaseVocabularyRoundTrip(t *testing.T) {
	// The base vocabulary has no unknown token: every input is encoded as its bytes.
	tok := newTestTokenizer(t)
	for _, text := range []string{"hello", "naïve café", "日本語", "invalid \xff\xfe bytes", ""} {
		ids := tok.Encode(text)
		assert.Equal(t, ToBytes(text), append([]int{}, ids...))
		decoded, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, decoded)
	}
}

func TestEncode_RoundTripTrained(t *testing.T) {
	tok := trainedTokenizer(t, tinyStory, 400, WithSpecialTokens("<|startoftext|>", "<|endoftext|>"))
	for _, text := range []string{
		"Once upon a time, Lily played with the ball.",
		"The sun went down!",
		"they're happy",
	} {
		ids := tok.Encode(text)
		assert.Less(t, len(ids), len(text), "a trained vocabulary should compress %q", text)
		decoded, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, decoded)
	}
}

func TestEncode_SpecialTokens(t *testing.T) {
	tok := trainedTokenizer(t, tinyStory, 300, WithSpecialTokens("<|startoftext|>", "<|endoftext|>"))
	startID, found := tok.Vocabulary().IDOf("<|startoftext|>")
	require.True(t, found)
	endID, found := tok.Vocabulary().IDOf("<|endoftext|>")
	require.True(t, found)

	text := "<|startoftext|>Lily<|endoftext|><|endoftext|>"
	ids := tok.Encode(text)
	require.GreaterOrEqual(t, len(ids), 4)
	assert.Equal(t, startID, ids[0])
	assert.Equal(t, []int{endID, endID}, ids[len(ids)-2:])
	assert.Equal(t, tok.Encode("Lily"), ids[1:len(ids)-2])

	decoded, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestEncode_OverlappingSpecialsPreferLongest(t *testing.T) {
	tok := trainedTokenizer(t, "xyz", 259, WithSpecialTokens("<|a|>", "<|a|><|b|>"))
	longID, found := tok.Vocabulary().IDOf("<|a|><|b|>")
	require.True(t, found)
	assert.Equal(t, []int{longID}, tok.Encode("<|a|><|b|>"))
}

func TestEncodeWithSpans(t *testing.T) {
	tok := trainedTokenizer(t, tinyStory, 350, WithSpecialTokens("<|endoftext|>"))
	unknownID, _ := tok.UnknownID()

	text := "Lily's ball<|endoftext|>went 日本 high"
	result := tok.EncodeWithSpans(text)
	require.Len(t, result.Spans, len(result.IDs))
	pos := 0
	for i, id := range result.IDs {
		span := result.Spans[i]
		require.Equal(t, pos, span.Start)
		if id != unknownID {
			value, found := tok.Vocabulary().ValueOf(id)
			require.True(t, found)
			assert.Equal(t, value, text[span.Start:span.End])
		}
		pos = span.End
	}
	assert.Equal(t, len(text), pos)
	assert.Equal(t, result.IDs, tok.Encode(text))
}

func TestDecode_UnknownID(t *testing.T) {
	tok := trainedTokenizer(t, "aaaa", 257)
	for _, ids := range [][]int{{97, 10_000}, {-1}, {tok.VocabSize()}} {
		_, err := tok.Decode(ids)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrVocabularyLookup), "got %v", err)
	}
}

func TestSpecialTokenID(t *testing.T) {
	config := &api.Config{EosToken: "<|endoftext|>", UnkToken: "<unk>"}
	tok := trainedTokenizer(t, tinyStory, 300,
		WithSpecialTokens("<|endoftext|>"), WithConfig(config))
	assert.Equal(t, "<unk>", tok.UnknownToken())

	eos, err := tok.SpecialTokenID(api.TokEndOfSentence)
	require.NoError(t, err)
	assert.Equal(t, 299, eos)

	unk, err := tok.SpecialTokenID(api.TokUnknown)
	require.NoError(t, err)
	assert.Equal(t, 300, unk)
	value, _ := tok.Vocabulary().ValueOf(unk)
	assert.Equal(t, "<unk>", value)

	_, err = tok.SpecialTokenID(api.TokPad)
	assert.Error(t, err)
}

func TestLoadedVocabularyFindsUnknownLiteral(t *testing.T) {
	trained := trainedTokenizer(t, "aaaa", 257)
	var values []string
	for _, value := range trained.Vocabulary().All() {
		values = append(values, value)
	}
	vocab, err := NewVocabularyFromValues(values)
	require.NoError(t, err)

	tok := newTestTokenizer(t, WithVocabulary(vocab))
	unknownID, found := tok.UnknownID()
	require.True(t, found)
	assert.Equal(t, 257, unknownID)
	assert.Equal(t, []int{256, 257}, tok.Encode("aaé"))

	// With another unknown literal the loaded vocabulary has no unknown token and falls back to bytes.
	tok = newTestTokenizer(t, WithVocabulary(vocab), WithUnknownToken("<unk>"))
	_, found = tok.UnknownID()
	assert.False(t, found)
	assert.Equal(t, []int{256, 0xc3, 0xa9}, tok.Encode("aaé"))
}

func TestTokenizerOptions(t *testing.T) {
	_, err := New(WithSpecialTokens("x"))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = New(WithSpecialTokens("<a>", "<a>"))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = New(WithSpecialTokens(DefaultUnknownToken))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = New(WithUnknownToken(""))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = New(WithPattern(`(`))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = New(WithVocabulary(nil))
	assert.Error(t, err)

	tok := newTestTokenizer(t, WithPattern(`\w+|\W`), WithSpecialTokens("<a>", "<b>"))
	assert.Equal(t, `\w+|\W`, tok.PreTokenizer().Pattern())
	assert.Equal(t, []string{"<a>", "<b>"}, tok.SpecialTokens())
	assert.Equal(t, DefaultUnknownToken, tok.UnknownToken())
	assert.Equal(t, NumBytes, tok.VocabSize())
}
