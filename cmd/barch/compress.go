package barch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbook/barch/internal/codec"
)

func newCompressCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "compress [source.bmp] [dest.barch]",
		Short: "Compress a BMP image into BARCH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, dest := args[0], args[1]

			var notifier codec.Notifier
			if !quiet {
				notifier = newBarNotifier(cmd.OutOrStdout(), "compress")
			}

			ok, err := codec.Encode(source, dest, notifier)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("compress: unexpected failure with no error")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

func newDecompressCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "decompress [source.barch] [dest.bmp]",
		Short: "Decompress a BARCH image into BMP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, dest := args[0], args[1]

			var notifier codec.Notifier
			if !quiet {
				notifier = newBarNotifier(cmd.OutOrStdout(), "decompress")
			}

			ok, err := codec.Decode(source, dest, notifier)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("decompress: unexpected failure with no error")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}
