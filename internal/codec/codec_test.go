package codec

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pocketbook/barch/internal/container"
)

func buildBMP(t *testing.T, width, height uint32, rows [][]byte) []byte {
	t.Helper()
	stride := int(container.Stride(width))
	pixelData := make([]byte, 0, stride*len(rows))
	for _, row := range rows {
		require.Len(t, row, stride)
		pixelData = append(pixelData, row...)
	}

	dataOffset := uint32(container.FixedHeaderSize + container.InfoHeaderSize)
	header := container.FixedHeader{
		Signature:  container.SignatureBMP,
		FileSize:   dataOffset + uint32(len(pixelData)),
		DataOffset: dataOffset,
	}
	info := container.InfoHeader{
		Size:         container.InfoHeaderSize,
		Width:        width,
		Height:       height,
		Planes:       1,
		BitsPerPixel: 8,
		ImageSize:    uint32(len(pixelData)),
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, header))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, info))
	buf.Write(pixelData)
	return buf.Bytes()
}

// buildBARCH hand-assembles a BARCH file from a caller-chosen row index and
// packed stream, for tests that need to control exact wire bytes rather
// than go through Encode.
func buildBARCH(t *testing.T, width, height uint32, rowIndex, stream []byte) []byte {
	t.Helper()
	indexOffset := uint32(container.FixedHeaderSize + container.InfoHeaderSize)
	dataOffset := indexOffset + uint32(len(rowIndex))
	header := container.FixedHeader{
		Signature:   container.SignatureBARCH,
		FileSize:    dataOffset + uint32(len(stream)),
		IndexOffset: indexOffset,
		DataOffset:  dataOffset,
	}
	info := container.InfoHeader{
		Size:         container.InfoHeaderSize,
		Width:        width,
		Height:       height,
		Planes:       1,
		BitsPerPixel: 8,
		ImageSize:    uint32(len(stream)),
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, header))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, info))
	buf.Write(rowIndex)
	buf.Write(stream)
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

type recordingNotifier struct {
	inits   [][2]int
	notices []int
}

func (n *recordingNotifier) Init(min, max int) { n.inits = append(n.inits, [2]int{min, max}) }
func (n *recordingNotifier) Notify(current int) { n.notices = append(n.notices, current) }

// Scenario A from spec.md §8: 8x2, one white row, one mixed row.
func TestEncodeScenarioA(t *testing.T) {
	data := buildBMP(t, 8, 2, [][]byte{
		bytes.Repeat([]byte{0xFF}, 8),
		{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00},
	})
	src := writeTemp(t, "a.bmp", data)
	dest := filepath.Join(t.TempDir(), "a.barch")

	notifier := &recordingNotifier{}
	ok, err := Encode(src, dest, notifier)
	require.NoError(t, err)
	require.True(t, ok)

	r, err := container.Open(dest, true)
	require.NoError(t, err)
	defer r.Close()

	idx, err := r.RowIndex()
	require.NoError(t, err)
	white0, _ := idx.Test(0)
	white1, _ := idx.Test(1)
	require.True(t, white0)
	require.False(t, white1)

	require.EqualValues(t, 1, r.InfoHeader().ImageSize)
	require.Equal(t, []byte{0x02}, r.PixelData())

	require.Equal(t, [][2]int{{0, 2}, {2, 4}}, notifier.inits)
}

// Scenario F from spec.md §8: all-black 8x1 image. The 8-byte row holds two
// 0x00000000 groups, each coded 1,0: bits 1,0,1,0 LSB-first -> 0x05.
func TestEncodeScenarioF(t *testing.T) {
	data := buildBMP(t, 8, 1, [][]byte{bytes.Repeat([]byte{0x00}, 8)})
	src := writeTemp(t, "f.bmp", data)
	dest := filepath.Join(t.TempDir(), "f.barch")

	ok, err := Encode(src, dest, nil)
	require.NoError(t, err)
	require.True(t, ok)

	r, err := container.Open(dest, true)
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, 1, r.InfoHeader().ImageSize)
	require.Equal(t, []byte{0x05}, r.PixelData())
}

func TestEncodeAllWhitePadsToOneByte(t *testing.T) {
	data := buildBMP(t, 8, 3, [][]byte{
		bytes.Repeat([]byte{0xFF}, 8),
		bytes.Repeat([]byte{0xFF}, 8),
		bytes.Repeat([]byte{0xFF}, 8),
	})
	src := writeTemp(t, "white.bmp", data)
	dest := filepath.Join(t.TempDir(), "white.barch")

	ok, err := Encode(src, dest, nil)
	require.NoError(t, err)
	require.True(t, ok)

	r, err := container.Open(dest, true)
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, 1, r.InfoHeader().ImageSize)
	require.Equal(t, []byte{0x00}, r.PixelData())
}

func TestRoundTripBMPthroughBARCH(t *testing.T) {
	original := buildBMP(t, 8, 2, [][]byte{
		bytes.Repeat([]byte{0xFF}, 8),
		{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00},
	})
	src := writeTemp(t, "rt.bmp", original)
	compressed := filepath.Join(t.TempDir(), "rt.barch")
	roundTripped := filepath.Join(t.TempDir(), "rt2.bmp")

	ok, err := Encode(src, compressed, nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Decode(compressed, roundTripped, nil)
	require.NoError(t, err)
	require.True(t, ok)

	r, err := container.Open(roundTripped, false)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, original[r.Header().DataOffset:], r.PixelData())
}

func TestEncodeIdempotentOnBARCH(t *testing.T) {
	data := buildBARCH(t, 8, 1, []byte{0x00}, []byte{0x02})
	src := writeTemp(t, "already.barch", data)
	dest := filepath.Join(t.TempDir(), "copy.barch")

	ok, err := Encode(src, dest, nil)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecodeIdempotentOnBMP(t *testing.T) {
	data := buildBMP(t, 8, 1, [][]byte{bytes.Repeat([]byte{0xFF}, 8)})
	src := writeTemp(t, "already.bmp", data)
	dest := filepath.Join(t.TempDir(), "copy.bmp")

	ok, err := Decode(src, dest, nil)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecodeFailureAtomicityOnTruncatedStream(t *testing.T) {
	// Row 0 marked non-white but the packed stream is far too short to
	// hold the two groups its 8-byte stride demands.
	data := buildBARCH(t, 8, 1, []byte{0x00}, []byte{0x03})
	src := writeTemp(t, "truncated.barch", data)
	dest := filepath.Join(t.TempDir(), "out.bmp")

	ok, err := Decode(src, dest, nil)
	require.Error(t, err)
	require.False(t, ok)

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestEncodeFileCreationFailure(t *testing.T) {
	data := buildBMP(t, 8, 1, [][]byte{bytes.Repeat([]byte{0xFF}, 8)})
	src := writeTemp(t, "x.bmp", data)

	ok, err := Encode(src, filepath.Join(t.TempDir(), "no-such-dir", "out.barch"), nil)
	require.Error(t, err)
	require.False(t, ok)
}
