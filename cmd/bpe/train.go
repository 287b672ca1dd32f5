package main

import (
	"fmt"

	"github.com/gomlx/go-bpe/corpus"
	"github.com/gomlx/go-bpe/store"
	"github.com/gomlx/go-bpe/tokenizers/bpe"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train CORPUS",
		Short: "Train a vocabulary on a text or parquet corpus",
		Args:  cobra.ExactArgs(1),
		RunE:  trainHandler,
	}
	cmd.Flags().Int("vocab-size", 0, "Vocabulary size, including the 256 byte tokens and the special tokens (required)")
	cmd.Flags().StringArray("special", nil, "Special token literal, in id order (repeatable)")
	cmd.Flags().String("unknown", bpe.DefaultUnknownToken, "Unknown token literal")
	cmd.Flags().String("pattern", bpe.DefaultPattern, "Pre-tokenizer regular expression")
	cmd.Flags().String("column", corpus.DefaultColumn, "Text column of parquet corpora")
	cmd.Flags().String("strategy", bpe.StrategyHeap.String(), "Training strategy: heap or scan")
	cmd.Flags().BoolP("quiet", "q", false, "Don't print progress")
	cmd.Flags().StringP("output", "o", "vocab.json", "Where to save the vocabulary")
	_ = cmd.MarkFlagRequired("vocab-size")
	return cmd
}

func trainHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	targetSize, _ := flags.GetInt("vocab-size")
	specials, _ := flags.GetStringArray("special")
	unknown, _ := flags.GetString("unknown")
	pattern, _ := flags.GetString("pattern")
	column, _ := flags.GetString("column")
	strategyName, _ := flags.GetString("strategy")
	quiet, _ := flags.GetBool("quiet")
	output, _ := flags.GetString("output")

	strategy, err := bpe.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	tok, err := bpe.New(
		bpe.WithPattern(pattern),
		bpe.WithUnknownToken(unknown),
		bpe.WithSpecialTokens(specials...),
	)
	if err != nil {
		return err
	}

	text, err := corpus.Read(args[0], corpus.WithColumn(column))
	if err != nil {
		return errors.WithMessagef(err, "reading corpus %q", args[0])
	}

	trainOpts := []bpe.TrainOption{bpe.WithStrategy(strategy)}
	var bar *progress
	if !quiet {
		bar = newProgress(cmd.ErrOrStderr())
		trainOpts = append(trainOpts, bpe.WithProgress(bar.Update))
	}
	if err := tok.Train(text, targetSize, trainOpts...); err != nil {
		return err
	}
	if bar != nil {
		bar.Done()
	}

	if err := store.Save(output, tok.Vocabulary()); err != nil {
		return err
	}
	vocab := tok.Vocabulary()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tokens (%d merges, %d special) to %s\n",
		vocab.Size(), vocab.NumMerges(), len(vocab.SpecialTokens()), output)
	return nil
}
