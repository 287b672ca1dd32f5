// bpe trains byte-pair-encoding vocabularies and uses them to encode and decode text.
//
// Usage:
//
//	bpe train corpus.txt --vocab-size 1000 --special "<|endoftext|>" -o vocab.json
//	bpe encode --vocab vocab.json --text "Once upon a time"
//	bpe decode --vocab vocab.json 79 256 301
//	bpe inspect --vocab vocab.json --from 256
//	bpe compare --vocab vocab.json --spm tokenizer.model stories.txt
//
// The vocabulary path defaults to $BPE_VOCAB. Logging is controlled by the klog flags, e.g. "-v=1".
package main

import (
	"context"
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// vocabEnv is the environment variable with the default for the --vocab flag.
const vocabEnv = "BPE_VOCAB"

func main() {
	defer klog.Flush()
	cobra.CheckErr(NewCLI().ExecuteContext(context.Background()))
}

// NewCLI returns the root command with all sub-commands.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bpe",
		Short: "Train and use byte-pair-encoding tokenizers",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		NewTrainCmd(),
		NewEncodeCmd(),
		NewDecodeCmd(),
		NewInspectCmd(),
		NewCompareCmd(),
	)
	return rootCmd
}

// addVocabFlags registers the flags used to load a vocabulary and configure the tokenizer around it.
func addVocabFlags(cmd *cobra.Command) {
	cmd.Flags().String("vocab", os.Getenv(vocabEnv), "Vocabulary file written by \"bpe train\" (default $"+vocabEnv+")")
	cmd.Flags().StringArray("special", nil, "Special token literal matched as a whole token (repeatable)")
	cmd.Flags().String("unknown", "", "Unknown token literal (default \"<|unknown|>\")")
	cmd.Flags().Bool("byte-fallback", false, "Encode characters missing from the vocabulary as their bytes")
}
