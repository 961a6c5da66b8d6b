// Command lowcard inspects and exercises stored dictionary-encoded parts.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lowcard"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lowcard",
		Short:         "Dictionary-encoded column tooling",
		Long:          `Inspect stored parts and run encode/decode round trips of LowCardinality columns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log every chunk at debug level")
	addStoreFlags(root)

	root.AddCommand(newInspectCmd(), newRoundtripCmd())
	return root
}

// typeOptions returns the lowcard options selected by the persistent flags.
func typeOptions(cmd *cobra.Command) []lowcard.Option {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return nil
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
	return []lowcard.Option{lowcard.WithLogger(lowcard.NewLogger(handler))}
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
