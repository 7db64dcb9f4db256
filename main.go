// Command barch converts 8-bit grayscale images between the uncompressed
// BMP container and the compressed BARCH container.
package main

import (
	"os"

	"github.com/pocketbook/barch/cmd/barch"
)

func main() {
	os.Exit(barch.Execute())
}
