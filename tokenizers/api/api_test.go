package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecialTokenString(t *testing.T) {
	assert.Equal(t, "unknown", TokUnknown.String())
	assert.Equal(t, "beginning_of_sentence", TokBeginningOfSentence.String())
	assert.Equal(t, "SpecialToken(42)", SpecialToken(42).String())
}

func TestConfigLiteral(t *testing.T) {
	var nilConfig *Config
	_, ok := nilConfig.Literal(TokPad)
	assert.False(t, ok)

	cfg := &Config{BosToken: "<|startoftext|>", EosToken: "<|endoftext|>"}
	got, ok := cfg.Literal(TokEndOfSentence)
	assert.True(t, ok)
	assert.Equal(t, "<|endoftext|>", got)

	_, ok = cfg.Literal(TokMask)
	assert.False(t, ok)
}
