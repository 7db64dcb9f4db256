// Package codec implements the encode (BMP→BARCH) and decode (BARCH→BMP)
// transforms over a container.Reader, producing a new file atomically: a
// complete, well-formed file at destPath on success, or nothing at all on
// any failure.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/pocketbook/barch/internal/barcherr"
	"github.com/pocketbook/barch/internal/bitbuf"
	"github.com/pocketbook/barch/internal/container"
	"github.com/pocketbook/barch/internal/rowindex"
)

// Notifier is the progress sink consumed by Encode and Decode. Init is
// called exactly once per phase with bound equal to the last value that
// will be notified plus one; Notify is called per row in strictly
// increasing order. Implementations must not panic; a panicking sink is
// the caller's bug, not the codec's.
type Notifier interface {
	Init(min, max int)
	Notify(current int)
}

type noopNotifier struct{}

func (noopNotifier) Init(int, int) {}
func (noopNotifier) Notify(int)    {}

// Encode compresses the BMP at sourcePath into a BARCH file at destPath. If
// sourcePath is already BARCH, its bytes are copied through unchanged.
func Encode(sourcePath, destPath string, progress Notifier) (bool, error) {
	if progress == nil {
		progress = noopNotifier{}
	}
	r, compressed, err := openSource(sourcePath)
	if err != nil {
		return false, err
	}
	defer r.Close()

	if compressed {
		return copyThrough(r, destPath)
	}
	return encodeToBARCH(r, destPath, progress)
}

// Decode decompresses the BARCH at sourcePath into a BMP file at destPath.
// If sourcePath is already BMP, its bytes are copied through unchanged.
func Decode(sourcePath, destPath string, progress Notifier) (bool, error) {
	if progress == nil {
		progress = noopNotifier{}
	}
	r, compressed, err := openSource(sourcePath)
	if err != nil {
		return false, err
	}
	defer r.Close()

	if !compressed {
		return copyThrough(r, destPath)
	}
	return decodeToBMP(r, destPath, progress)
}

// openSource opens path without committing to a kind up front: it tries
// BMP first and falls back to BARCH on a WrongContainerKind verdict, since
// a caller asking to "compress" or "decompress" a file doesn't know its
// kind in advance.
func openSource(path string) (*container.Reader, bool, error) {
	r, err := container.Open(path, false)
	if err == nil {
		return r, false, nil
	}
	var wrongKind *barcherr.WrongContainerKind
	if errors.As(err, &wrongKind) {
		r, err := container.Open(path, true)
		if err != nil {
			return nil, false, err
		}
		return r, true, nil
	}
	return nil, false, err
}

func createOutput(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &barcherr.FileCreationFailed{Path: path, Err: err}
	}
	return f, nil
}

// rollback implements the failure-atomic write protocol: close whatever
// was written so far and remove it, leaving no file at path.
func rollback(f *os.File, path string) {
	f.Close()
	os.Remove(path)
}

func copyThrough(r *container.Reader, destPath string) (bool, error) {
	f, err := createOutput(destPath)
	if err != nil {
		return false, err
	}
	if err := r.CopyPrefixTo(f, int(r.FileSize())); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "copy through", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return false, &barcherr.IoFailure{Detail: "close", Err: err}
	}
	return true, nil
}

func encodeToBARCH(r *container.Reader, destPath string, progress Notifier) (bool, error) {
	f, err := createOutput(destPath)
	if err != nil {
		return false, err
	}

	h := r.Rows()
	w := int(r.Width())
	pad := int(container.Pad(r.Width()))
	stride := w + pad

	pixels := r.PixelData()
	if len(pixels) < h*stride {
		rollback(f, destPath)
		return false, &barcherr.InvalidPixelData{Detail: "pixel data shorter than declared"}
	}

	idx := rowindex.NewOwned(h)
	whitePattern := rowindex.WhiteRowPattern(w, pad)

	progress.Init(0, h)
	for row := 0; row < h; row++ {
		rowBytes := pixels[row*stride : row*stride+stride]
		idx.Set(row, bytes.Equal(rowBytes, whitePattern))
		progress.Notify(row)
	}

	bb := bitbuf.New()
	progress.Init(h, 2*h)
	for row := 0; row < h; row++ {
		white, _ := idx.Test(row)
		if white {
			progress.Notify(h + row)
			continue
		}
		rowBytes := pixels[row*stride : row*stride+stride]
		for g := 0; g+4 <= stride; g += 4 {
			v := binary.LittleEndian.Uint32(rowBytes[g : g+4])
			switch v {
			case 0xFFFFFFFF:
				bb.PushBit(false)
			case 0x00000000:
				bb.PushBit(true)
				bb.PushBit(false)
			default:
				bb.PushBit(true)
				bb.PushBit(true)
				for i := uint(0); i < 32; i++ {
					bb.PushBit(v&(1<<i) != 0)
				}
			}
		}
		progress.Notify(h + row)
	}

	// BARCH requires ImageSize > 0; an all-white image produces zero
	// stream bits, so pad with a single zero byte.
	if bb.ByteLen() == 0 {
		bb.PushBit(false)
	}

	srcDataOffset := r.Header().DataOffset

	newHeader := r.Header()
	newHeader.Signature = container.SignatureBARCH
	newHeader.IndexOffset = srcDataOffset
	newHeader.DataOffset = srcDataOffset + uint32(idx.ByteLen())

	newInfo := r.InfoHeader()
	newInfo.ImageSize = uint32(bb.ByteLen())

	newHeader.FileSize = newHeader.DataOffset + newInfo.ImageSize

	if err := r.CopyPrefixTo(f, int(srcDataOffset)); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "copy header prefix", Err: err}
	}
	if _, err := f.Write(idx.Raw()); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "write row index", Err: err}
	}
	if _, err := f.Write(bb.Bytes()); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "write packed stream", Err: err}
	}

	if err := verifyPosition(f, newHeader.FileSize, destPath); err != nil {
		rollback(f, destPath)
		return false, err
	}
	if err := patchHeader(f, newHeader, newInfo); err != nil {
		rollback(f, destPath)
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return false, &barcherr.IoFailure{Detail: "close", Err: err}
	}
	return true, nil
}

func decodeToBMP(r *container.Reader, destPath string, progress Notifier) (bool, error) {
	f, err := createOutput(destPath)
	if err != nil {
		return false, err
	}

	h := r.Rows()
	w := int(r.Width())
	pad := int(container.Pad(r.Width()))
	stride := w + pad

	idx, err := r.RowIndex()
	if err != nil {
		rollback(f, destPath)
		return false, &barcherr.InvalidPixelData{Detail: "missing row index"}
	}

	stream := r.PixelData()
	bb := bitbuf.FromBytes(stream, len(stream))
	whitePattern := rowindex.WhiteRowPattern(w, pad)

	out := make([]byte, h*stride)

	progress.Init(0, h)
	bitPos := 0
	for row := 0; row < h; row++ {
		rowSlice := out[row*stride : row*stride+stride]
		white, err := idx.Test(row)
		if err != nil {
			rollback(f, destPath)
			return false, &barcherr.InvalidPixelData{Detail: "row index out of range"}
		}
		if white {
			copy(rowSlice, whitePattern)
			progress.Notify(row)
			continue
		}
		for g := 0; g+4 <= stride; g += 4 {
			v, consumed, err := readGroup(bb, bitPos)
			if err != nil {
				rollback(f, destPath)
				return false, &barcherr.InvalidPixelData{Detail: "truncated packed stream"}
			}
			bitPos += consumed
			binary.LittleEndian.PutUint32(rowSlice[g:g+4], v)
		}
		progress.Notify(row)
	}

	srcHeader := r.Header()
	newHeader := srcHeader
	newHeader.Signature = container.SignatureBMP
	newHeader.DataOffset = srcHeader.IndexOffset
	newHeader.IndexOffset = 0

	newInfo := r.InfoHeader()
	newInfo.ImageSize = uint32(h * stride)

	newHeader.FileSize = newHeader.DataOffset + newInfo.ImageSize

	if err := r.CopyPrefixTo(f, int(newHeader.DataOffset)); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "copy header prefix", Err: err}
	}
	if _, err := f.Write(out); err != nil {
		rollback(f, destPath)
		return false, &barcherr.IoFailure{Detail: "write pixel data", Err: err}
	}

	if err := verifyPosition(f, newHeader.FileSize, destPath); err != nil {
		rollback(f, destPath)
		return false, err
	}
	if err := patchHeader(f, newHeader, newInfo); err != nil {
		rollback(f, destPath)
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return false, &barcherr.IoFailure{Detail: "close", Err: err}
	}
	return true, nil
}

// readGroup decodes one 4-pixel group starting at bit offset from, per the
// variable-length code of spec.md §6.2. It returns the decoded u32, the
// number of bits consumed, and an error if the stream runs out early.
func readGroup(bb *bitbuf.Buffer, from int) (uint32, int, error) {
	b0, err := bb.Test(from)
	if err != nil {
		return 0, 0, err
	}
	if !b0 {
		return 0xFFFFFFFF, 1, nil
	}
	b1, err := bb.Test(from + 1)
	if err != nil {
		return 0, 0, err
	}
	if !b1 {
		return 0x00000000, 2, nil
	}
	var v uint32
	for i := uint(0); i < 32; i++ {
		bit, err := bb.Test(from + 2 + int(i))
		if err != nil {
			return 0, 0, err
		}
		if bit {
			v |= 1 << i
		}
	}
	return v, 34, nil
}

// verifyPosition fails the write if the cursor isn't exactly where the
// composed header says the file should end.
func verifyPosition(f *os.File, wantSize uint32, destPath string) error {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return &barcherr.IoFailure{Detail: "seek current", Err: err}
	}
	if uint32(pos) != wantSize {
		return &barcherr.IoFailure{Detail: "file position does not match computed size after write"}
	}
	return nil
}

// patchHeader rewinds to the start of the file and overwrites the fixed
// and info headers with their final, composed values.
func patchHeader(f *os.File, header container.FixedHeader, info container.InfoHeader) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return &barcherr.IoFailure{Detail: "encode fixed header", Err: err}
	}
	if err := binary.Write(&buf, binary.LittleEndian, info); err != nil {
		return &barcherr.IoFailure{Detail: "encode info header", Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &barcherr.IoFailure{Detail: "seek start", Err: err}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return &barcherr.IoFailure{Detail: "patch header", Err: err}
	}
	return nil
}
