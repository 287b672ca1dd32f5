package bpe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVocabulary(t *testing.T) {
	v := NewVocabulary()
	require.Equal(t, NumBytes, v.Size())
	for b := range NumBytes {
		value, found := v.ValueOf(b)
		require.True(t, found)
		require.Equal(t, string([]byte{byte(b)}), value)
		id, found := v.IDOf(value)
		require.True(t, found)
		require.Equal(t, b, id)
	}
	_, found := v.ValueOf(NumBytes)
	assert.False(t, found)
	_, found = v.ValueOf(-1)
	assert.False(t, found)
	_, found = v.UnknownID()
	assert.False(t, found)
	assert.Empty(t, v.SpecialTokens())
	assert.Zero(t, v.NumMerges())
}

func TestNewVocabularyFromValues(t *testing.T) {
	values := append(NewVocabulary().values, "ab", "<|endoftext|>", DefaultUnknownToken)
	v, err := NewVocabularyFromValues(values)
	require.NoError(t, err)
	assert.Equal(t, 259, v.Size())

	id, found := v.IDOf("ab")
	require.True(t, found)
	assert.Equal(t, 256, id)

	// Loading doesn't restore special tokens or the unknown token.
	assert.Empty(t, v.SpecialTokens())
	_, found = v.UnknownID()
	assert.False(t, found)

	// The vocabulary owns its copy.
	values[256] = "changed"
	value, _ := v.ValueOf(256)
	assert.Equal(t, "ab", value)
}

func TestNewVocabularyFromValues_Duplicates(t *testing.T) {
	_, err := NewVocabularyFromValues([]string{"a", "b", "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ids 0 and 2")
}

func TestVocabulary_AllAndEqual(t *testing.T) {
	v := NewVocabulary()
	var count int
	for id, value := range v.All() {
		got, _ := v.ValueOf(id)
		require.Equal(t, got, value)
		count++
	}
	assert.Equal(t, NumBytes, count)

	assert.True(t, v.Equal(NewVocabulary()))
	other, err := NewVocabularyFromValues(append(NewVocabulary().values, "xy"))
	require.NoError(t, err)
	assert.False(t, v.Equal(other))
}
