package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/gomlx/go-bpe/corpus"
	"github.com/gomlx/go-bpe/tokenizers/api"
	"github.com/gomlx/go-bpe/tokenizers/sentencepiece"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare FILE...",
		Short: "Compare token counts with a SentencePiece model",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareHandler,
	}
	addVocabFlags(cmd)
	cmd.Flags().String("spm", "", "SentencePiece tokenizer.model file (required)")
	_ = cmd.MarkFlagRequired("spm")
	return cmd
}

// countTokens returns how many tokens each tokenizer produces for text.
func countTokens(text string, tokenizers ...api.Tokenizer) []int {
	counts := make([]int, len(tokenizers))
	for i, tok := range tokenizers {
		counts[i] = len(tok.Encode(text))
	}
	return counts
}

func compareHandler(cmd *cobra.Command, args []string) error {
	spmPath, _ := cmd.Flags().GetString("spm")
	tok, err := loadTokenizer(cmd)
	if err != nil {
		return err
	}
	spm, err := sentencepiece.New(spmPath)
	if err != nil {
		return err
	}

	type row struct {
		bytes  int
		counts []int
	}
	rows := make([]row, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := corpus.Read(path)
			if err != nil {
				return errors.WithMessagef(err, "reading %q", path)
			}
			rows[i] = row{bytes: len(text), counts: countTokens(text, tok, spm)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"FILE", "BYTES",
		fmt.Sprintf("BPE (%d)", tok.VocabSize()), fmt.Sprintf("SPM (%d)", spm.VocabSize())})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoFormatHeaders(false)
	for i, path := range args {
		r := rows[i]
		table.Append([]string{path, strconv.Itoa(r.bytes), strconv.Itoa(r.counts[0]), strconv.Itoa(r.counts[1])})
	}
	table.Render()
	return nil
}
