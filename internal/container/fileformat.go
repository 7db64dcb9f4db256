// Package container opens, validates, and exposes typed views onto a BMP
// or BARCH file: the shared on-disk layout of both formats (spec.md §3,
// §6.1).
package container

// FixedHeader is the 14-byte header shared by BMP and BARCH. It has no
// internal padding: encoding/binary serializes struct fields in
// declaration order regardless of in-memory alignment, so this mirrors
// original_source/BmpLib/bmpdefs.h's `#pragma pack(push, 1)` BmpHeader
// without needing any pragma of our own.
type FixedHeader struct {
	Signature   uint16 // 0x4D42 ("BM") uncompressed, 0x4142 ("BA") compressed
	FileSize    uint32 // total bytes on disk
	IndexOffset uint32 // BMP: must be zero. BARCH: byte offset of row-index region
	DataOffset  uint32 // byte offset of pixel-data region
}

const FixedHeaderSize = 14

// Signature values (spec.md §3, §6.1).
const (
	SignatureBMP   uint16 = 0x4D42 // "BM"
	SignatureBARCH uint16 = 0x4142 // "BA"
)

// InfoHeader is the ≥40-byte self-describing info header. Width/Height are
// uint32 (matching original_source/BmpLib/bmpdefs.h's BmpInfoHeader, not
// the signed int32 some BMP variants use) since BARCH never needs negative
// (bottom-up) height.
type InfoHeader struct {
	Size            uint32 // bytes required by this structure; ≥ 40
	Width           uint32
	Height          uint32
	Planes          uint16
	BitsPerPixel    uint16 // must equal 8
	Compression     uint32
	ImageSize       uint32 // byte length of pixel-data region on disk
	XPixelsPerM     uint32
	YPixelsPerM     uint32
	ColorsUsed      uint32 // used only to compute minimum offsets
	ColorsImportant uint32
}

const InfoHeaderSize = 40

// Stride is Width + pad, the on-disk byte length of one row.
func Stride(width uint32) uint32 {
	return width + Pad(width)
}

// Pad is (4 - Width mod 4) mod 4, the zero padding appended per row to
// keep rows 4-byte aligned.
func Pad(width uint32) uint32 {
	return (4 - width%4) % 4
}
