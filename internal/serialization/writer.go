package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/born-ml/tiling/internal/tiling"
	"github.com/pkg/errors"
)

// Encode returns the framed encoding of rec.
func Encode(rec tiling.Record) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, FrameSize))
	buf.WriteString(MagicBytes)

	hdr := Header{Version: FormatVersion, Flags: FlagsOf(rec), PayloadSize: uint32(PayloadSize)}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, errors.Wrap(err, "failed to write header")
	}
	if err := binary.Write(buf, binary.LittleEndian, rec); err != nil {
		return nil, errors.Wrap(err, "failed to write record")
	}

	// The trailer is the SHA-256 of magic, header and payload.
	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// Writer appends framed records to an underlying stream.
type Writer struct {
	w     io.Writer
	count int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes rec and writes its frame.
func (w *Writer) Write(rec tiling.Record) error {
	frame, err := Encode(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return errors.Wrapf(err, "failed to write record %d", w.count)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}
