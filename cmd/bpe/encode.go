package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/gomlx/go-bpe/corpus"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [FILE...]",
		Short: "Encode text to token ids, one line per input",
		RunE:  encodeHandler,
	}
	addVocabFlags(cmd)
	cmd.Flags().String("text", "", "Text to encode, instead of files")
	return cmd
}

func encodeHandler(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	if cmd.Flags().Changed("text") == (len(args) > 0) {
		return errors.New("give either --text or input files")
	}
	tok, err := loadTokenizer(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("text") {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), formatIDs(tok.Encode(text)))
		return err
	}

	lines := make([]string, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := corpus.Read(path)
			if err != nil {
				return errors.WithMessagef(err, "reading %q", path)
			}
			lines[i] = formatIDs(tok.Encode(content))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
