package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pocketbook/barch/internal/barcherr"
	"github.com/pocketbook/barch/internal/rowindex"
)

// Reader holds a resident image of an opened, validated BMP or BARCH file.
// It is single-owner: its backing mapping/buffer is immutable after
// construction (safe for concurrent reads from one thread at a time), and
// a Reader must not be copied. Row-index and pixel-data views returned by
// a Reader are borrowed and must not outlive it.
type Reader struct {
	path     string
	backend  backend
	fileSize int64

	header FixedHeader
	info   InfoHeader
}

// Open opens path, validates it as a BMP or BARCH container depending on
// expectCompressed, and returns a Reader holding a resident image of the
// file. On any failure nothing is retained and no Reader is returned.
func Open(path string, expectCompressed bool) (*Reader, error) {
	be, size, err := openBackend(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &barcherr.FileNotFound{Path: path, Err: err}
		}
		return nil, &barcherr.FileOpenFailed{Path: path, Err: err}
	}

	r := &Reader{path: path, backend: be, fileSize: size}

	if err := r.validate(expectCompressed); err != nil {
		be.Close()
		return nil, err
	}

	return r, nil
}

// validate runs the fixed-header then info-header checks of spec.md §4.3,
// first failure wins, in the order original_source/BmpLib/bmpproxy.cpp's
// ProxyValidator runs them.
func (r *Reader) validate(expectCompressed bool) error {
	data := r.backend.Bytes()

	// Step 1: minimum size.
	if len(data) < FixedHeaderSize+InfoHeaderSize {
		return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("file too small: %d bytes", len(data))}
	}

	if err := binary.Read(bytes.NewReader(data[:FixedHeaderSize]), binary.LittleEndian, &r.header); err != nil {
		return &barcherr.InvalidBmpHeader{Detail: "unable to read header"}
	}

	// Step 2: signature.
	isBMP := r.header.Signature == SignatureBMP
	isBARCH := r.header.Signature == SignatureBARCH
	if !isBMP && !isBARCH {
		return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("unexpected signature: 0x%04x", r.header.Signature)}
	}

	// Step 3: caller's expectation vs. actual kind.
	if expectCompressed != isBARCH {
		expected, actual := "BMP", "BMP"
		if expectCompressed {
			expected = "BARCH"
		}
		if isBARCH {
			actual = "BARCH"
		}
		return &barcherr.WrongContainerKind{Expected: expected, Actual: actual}
	}

	// Step 4: file size.
	if uint64(r.header.FileSize) != uint64(len(data)) {
		return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("size mismatch: actual %d != header %d", len(data), r.header.FileSize)}
	}

	// Step 5: data offset lower bound.
	if r.header.DataOffset < FixedHeaderSize+InfoHeaderSize {
		return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("invalid data offset: %d", r.header.DataOffset)}
	}

	// Step 6: BARCH index offset.
	if isBARCH {
		if r.header.IndexOffset == 0 {
			return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("invalid index offset: %d", r.header.IndexOffset)}
		}
		if r.header.DataOffset <= r.header.IndexOffset {
			return &barcherr.InvalidBmpHeader{Detail: fmt.Sprintf("invalid data offset: %d", r.header.DataOffset)}
		}
	}

	if err := binary.Read(bytes.NewReader(data[FixedHeaderSize:FixedHeaderSize+InfoHeaderSize]), binary.LittleEndian, &r.info); err != nil {
		return &barcherr.InvalidInfoHeader{Detail: "unable to read info header"}
	}

	// Step 7: info header size.
	if r.info.Size < InfoHeaderSize {
		return &barcherr.InvalidInfoHeader{Detail: fmt.Sprintf("incorrect info header size: %d", r.info.Size)}
	}

	// Step 8: bits per pixel.
	if r.info.BitsPerPixel != 8 {
		return &barcherr.InvalidInfoHeader{Detail: "only 8-bit"}
	}

	pad := Pad(r.info.Width)

	// Step 9: color table / offsets.
	colorTableEnd := uint64(FixedHeaderSize) + uint64(r.info.Size) + uint64(r.info.ColorsUsed)*4
	if uint64(r.header.DataOffset) < colorTableEnd {
		return &barcherr.InvalidInfoHeader{Detail: fmt.Sprintf("invalid data offset: %d", r.header.DataOffset)}
	}
	if isBARCH && uint64(r.header.IndexOffset) < colorTableEnd {
		return &barcherr.InvalidInfoHeader{Detail: fmt.Sprintf("invalid index offset: %d", r.header.IndexOffset)}
	}

	// Step 10: image size.
	if isBARCH {
		if r.info.ImageSize == 0 {
			return &barcherr.InvalidInfoHeader{Detail: fmt.Sprintf("unexpected image size: %d", r.info.ImageSize)}
		}
	} else {
		expected := uint64(r.info.Height) * uint64(r.info.Width+pad)
		if r.info.ImageSize != 0 && uint64(r.info.ImageSize) != expected {
			return &barcherr.InvalidInfoHeader{Detail: fmt.Sprintf("unexpected image size: %d", r.info.ImageSize)}
		}
	}

	// Bounds check: declared regions must actually fit in the file.
	pixelLen := r.declaredPixelLen(pad)
	if uint64(r.header.DataOffset)+pixelLen > uint64(len(data)) {
		return &barcherr.InvalidPixelData{Detail: "pixel data region extends past end of file"}
	}
	if isBARCH {
		need := (uint64(r.info.Height) + 7) / 8
		if uint64(r.header.IndexOffset)+need > uint64(len(data)) {
			return &barcherr.InvalidPixelData{Detail: "row index region extends past end of file"}
		}
	}

	return nil
}

func (r *Reader) declaredPixelLen(pad uint32) uint64 {
	if r.info.ImageSize != 0 {
		return uint64(r.info.ImageSize)
	}
	return uint64(r.info.Height) * uint64(r.info.Width+pad)
}

// Close releases the backing mapping/buffer. Safe to call once.
func (r *Reader) Close() error {
	return r.backend.Close()
}

// Path is the source file path this Reader was opened from.
func (r *Reader) Path() string { return r.path }

// FileSize is the on-disk length of the source file.
func (r *Reader) FileSize() int64 { return r.fileSize }

// Header returns the fixed 14-byte header.
func (r *Reader) Header() FixedHeader { return r.header }

// InfoHeader returns the ≥40-byte info header.
func (r *Reader) InfoHeader() InfoHeader { return r.info }

// IsCompressed reports whether this file is BARCH (vs. BMP).
func (r *Reader) IsCompressed() bool { return r.header.Signature == SignatureBARCH }

// Width is the image width in pixels.
func (r *Reader) Width() uint32 { return r.info.Width }

// Height is the image height in pixels.
func (r *Reader) Height() uint32 { return r.info.Height }

// Stride is Width + pad: the on-disk byte length of one decoded row.
func (r *Reader) Stride() uint32 { return Stride(r.info.Width) }

// Rows is Height, as an int convenient for slice indexing.
func (r *Reader) Rows() int { return int(r.info.Height) }

// PixelData is the byte slice of the declared pixel-data region: for BMP
// this is Height*stride raw pixel bytes; for BARCH it is the packed
// variable-length stream, ImageSize bytes long.
func (r *Reader) PixelData() []byte {
	data := r.backend.Bytes()
	start := r.header.DataOffset
	length := r.declaredPixelLen(Pad(r.info.Width))
	return data[start : uint64(start)+length]
}

// RowIndex returns a borrowed view over the row-index region. Only valid
// for BARCH files.
func (r *Reader) RowIndex() (rowindex.Index, error) {
	if !r.IsCompressed() {
		return nil, fmt.Errorf("container: RowIndex called on a BMP reader")
	}
	data := r.backend.Bytes()
	region := data[r.header.IndexOffset:]
	return rowindex.NewBorrowed(region, int(r.info.Height))
}

// CopyPrefixTo writes the first nBytes bytes of the source file verbatim
// to dest: the fixed header, info header, and any color table, reproduced
// exactly. Grounded on original_source/BmpLib/bmpproxy.cpp's
// copyUpToOffset.
func (r *Reader) CopyPrefixTo(dest io.Writer, nBytes int) error {
	data := r.backend.Bytes()
	if nBytes > len(data) {
		return fmt.Errorf("container: CopyPrefixTo: %d exceeds file length %d", nBytes, len(data))
	}
	_, err := dest.Write(data[:nBytes])
	return err
}
