package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the tokens of a vocabulary",
		Args:  cobra.NoArgs,
		RunE:  inspectHandler,
	}
	addVocabFlags(cmd)
	cmd.Flags().Int("from", 256, "First token id to list")
	cmd.Flags().Int("limit", 50, "Maximum number of tokens to list, 0 for all")
	return cmd
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetInt("from")
	limit, _ := cmd.Flags().GetInt("limit")
	tok, err := loadTokenizer(cmd)
	if err != nil {
		return err
	}
	vocab := tok.Vocabulary()
	unknownID, hasUnknown := tok.UnknownID()
	specials := make(map[string]bool)
	for _, special := range tok.SpecialTokens() {
		specials[special] = true
	}

	var data [][]string
	for id := max(from, 0); id < vocab.Size() && (limit <= 0 || len(data) < limit); id++ {
		value, _ := vocab.ValueOf(id)
		kind := "merge"
		switch {
		case id < 256:
			kind = "byte"
		case hasUnknown && id == unknownID:
			kind = "unknown"
		case specials[value]:
			kind = "special"
		}
		data = append(data, []string{strconv.Itoa(id), kind, hex.EncodeToString([]byte(value)), strconv.Quote(value)})
	}

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "KIND", "BYTES", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(data)
	table.Render()

	_, err = fmt.Fprintf(out, "%d tokens\n", vocab.Size())
	return err
}
