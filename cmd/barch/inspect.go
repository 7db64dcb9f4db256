package barch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbook/barch/internal/container"
)

// newInspectCmd prints a container's headers in human-readable form.
// Grounded on the teacher's BitmapImage.PrintMetadata layout, adapted to
// BARCH's IndexOffset/row-index fields.
func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print BMP/BARCH header fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			r, err := openEither(path)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			kind := "BMP"
			if r.IsCompressed() {
				kind = "BARCH"
			}

			fmt.Fprintf(out, "Filename: \t%v\n", path)
			fmt.Fprintf(out, "Kind: \t\t%v\n", kind)
			fmt.Fprintf(out, "Filesize: \t%v bytes\n", r.Header().FileSize)
			fmt.Fprintf(out, "Width: \t\t%v px\n", r.Width())
			fmt.Fprintf(out, "Height: \t%v px\n", r.Height())
			fmt.Fprintf(out, "BitsPerPixel: \t%v\n", r.InfoHeader().BitsPerPixel)
			fmt.Fprintf(out, "DataOffset: \t%v bytes\n", r.Header().DataOffset)
			if r.IsCompressed() {
				fmt.Fprintf(out, "IndexOffset: \t%v bytes\n", r.Header().IndexOffset)
			}
			fmt.Fprintf(out, "Stride: \t%v bytes\n", r.Stride())
			fmt.Fprintf(out, "ImageSize: \t%v bytes\n", r.InfoHeader().ImageSize)

			return nil
		},
	}

	return cmd
}

// openEither tries both container kinds, since inspect doesn't know in
// advance which one a given file is.
func openEither(path string) (*container.Reader, error) {
	r, err := container.Open(path, false)
	if err == nil {
		return r, nil
	}
	return container.Open(path, true)
}
