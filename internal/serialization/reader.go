package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/born-ml/tiling/internal/tiling"
	"github.com/pkg/errors"
)

// ReaderOptions configures decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Decode parses one frame with strict validation.
func Decode(frame []byte) (tiling.Record, error) {
	return DecodeWithOptions(frame, ReaderOptions{ValidationLevel: ValidationStrict})
}

// DecodeWithOptions parses one frame.
func DecodeWithOptions(frame []byte, opts ReaderOptions) (tiling.Record, error) {
	if len(frame) < HeaderSize {
		return tiling.Record{}, errors.Wrapf(ErrTruncated, "%d bytes", len(frame))
	}
	if string(frame[:4]) != MagicBytes {
		return tiling.Record{}, ErrInvalidMagic
	}

	var hdr Header
	if err := binary.Read(bytes.NewReader(frame[4:HeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return tiling.Record{}, errors.Wrap(err, "failed to read header")
	}
	if hdr.Version != FormatVersion {
		return tiling.Record{}, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", hdr.Version, FormatVersion)
	}
	if int(hdr.PayloadSize) != PayloadSize {
		return tiling.Record{}, errors.Wrapf(ErrPayloadSize, "got %d, expected %d", hdr.PayloadSize, PayloadSize)
	}
	if len(frame) != FrameSize {
		return tiling.Record{}, errors.Wrapf(ErrTruncated, "%d of %d bytes", len(frame), FrameSize)
	}

	body := frame[:HeaderSize+PayloadSize]
	if !opts.SkipChecksumValidation && sha256.Sum256(body) != [ChecksumSize]byte(frame[len(body):]) {
		return tiling.Record{}, ErrChecksumMismatch
	}

	var rec tiling.Record
	if err := binary.Read(bytes.NewReader(body[HeaderSize:]), binary.LittleEndian, &rec); err != nil {
		return tiling.Record{}, errors.Wrap(err, "failed to read record")
	}
	if err := ValidateRecord(rec, hdr.Flags, opts.ValidationLevel); err != nil {
		return tiling.Record{}, errors.Wrap(err, "validation failed")
	}
	return rec, nil
}

// Reader reads framed records from a stream.
type Reader struct {
	r     io.Reader
	opts  ReaderOptions
	frame []byte
}

// NewReader returns a Reader on r with strict validation.
func NewReader(r io.Reader) *Reader {
	return NewReaderWithOptions(r, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewReaderWithOptions returns a Reader on r.
func NewReaderWithOptions(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{r: r, opts: opts, frame: make([]byte, FrameSize)}
}

// Next returns the next record, or io.EOF at a clean end of stream.
func (r *Reader) Next() (tiling.Record, error) {
	n, err := io.ReadFull(r.r, r.frame)
	switch {
	case err == io.EOF:
		return tiling.Record{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return tiling.Record{}, errors.Wrapf(ErrTruncated, "%d of %d bytes", n, FrameSize)
	case err != nil:
		return tiling.Record{}, errors.Wrap(err, "failed to read frame")
	}
	return DecodeWithOptions(r.frame, r.opts)
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]tiling.Record, error) {
	var out []tiling.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, errors.Wrapf(err, "record %d", len(out))
		}
		out = append(out, rec)
	}
}
