package main

import (
	"github.com/gomlx/go-bpe/store"
	"github.com/gomlx/go-bpe/tokenizers/bpe"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// loadTokenizer creates a tokenizer from the flags registered by addVocabFlags.
func loadTokenizer(cmd *cobra.Command) (*bpe.Tokenizer, error) {
	path, _ := cmd.Flags().GetString("vocab")
	if path == "" {
		return nil, errors.Errorf("no vocabulary: use --vocab or set $%s", vocabEnv)
	}
	vocab, err := store.Load(path)
	if err != nil {
		return nil, err
	}

	opts := []bpe.Option{bpe.WithVocabulary(vocab)}
	if specials, _ := cmd.Flags().GetStringArray("special"); len(specials) > 0 {
		opts = append(opts, bpe.WithSpecialTokens(specials...))
	}
	if unknown, _ := cmd.Flags().GetString("unknown"); unknown != "" {
		opts = append(opts, bpe.WithUnknownToken(unknown))
	}
	if fallback, _ := cmd.Flags().GetBool("byte-fallback"); fallback {
		opts = append(opts, bpe.WithByteFallback())
	}
	return bpe.New(opts...)
}
