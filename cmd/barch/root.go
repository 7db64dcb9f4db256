// Package barch wires the codec and container packages into a cobra CLI:
// compress, decompress, and inspect subcommands over BMP/BARCH files.
package barch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the barch root command and registers its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "barch",
		Short:         "Convert 8-bit grayscale images between BMP and BARCH",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompressCmd())
	root.AddCommand(newDecompressCmd())
	root.AddCommand(newInspectCmd())

	return root
}

// Execute runs the root command and prints any error to stderr.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "barch:", err)
		return 1
	}
	return 0
}
