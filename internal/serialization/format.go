package serialization

import (
	"encoding/binary"

	"github.com/born-ml/tiling/internal/tiling"
)

// Format constants.
const (
	MagicBytes    = "TILE"
	FormatVersion = 1
	HeaderSize    = 16 // Magic, version, flags and payload size.
	ChecksumSize  = 32 // SHA-256.
)

// Flags summarize which optional plans a record carries.
const (
	FlagSecondary uint32 = 1 << 0 // bit 0: dual split
	FlagFlat      uint32 = 1 << 1 // bit 1: flat re-split
	FlagWrap      uint32 = 1 << 2 // bit 2: wraparound regions
	FlagEmpty     uint32 = 1 << 3 // bit 3: zero-element record
)

// PayloadSize is the encoded size of one record.
var PayloadSize = binary.Size(tiling.Record{})

// FrameSize is the encoded size of one framed record.
var FrameSize = HeaderSize + PayloadSize + ChecksumSize

// Header is the fixed prefix of a frame.
type Header struct {
	Version     uint32
	Flags       uint32
	PayloadSize uint32
}

// FlagsOf returns the flags describing rec.
func FlagsOf(rec tiling.Record) uint32 {
	var f uint32
	if rec.Secondary.Active() {
		f |= FlagSecondary
	}
	if rec.Flat.Active() {
		f |= FlagFlat
	}
	if rec.Wrap.Count > 0 {
		f |= FlagWrap
	}
	if rec.IsEmpty() {
		f |= FlagEmpty
	}
	return f
}
