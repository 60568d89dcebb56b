// Package dtype maps element types onto the byte widths the tiling engine
// plans with.
package dtype

import (
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// MinStagingSize is the narrowest slot fast memory stages elements in.
// Narrower types share a slot of this width.
const MinStagingSize = 2

// ErrUnsupported is returned for types without a fixed byte width.
var ErrUnsupported = errors.New("unsupported dtype")

// names maps accepted spellings onto dtypes. Name, not this table, gives
// the canonical spelling.
var names = map[string]dtypes.DType{
	"bool":       dtypes.Bool,
	"int8":       dtypes.Int8,
	"uint8":      dtypes.Uint8,
	"int16":      dtypes.Int16,
	"uint16":     dtypes.Uint16,
	"int32":      dtypes.Int32,
	"uint32":     dtypes.Uint32,
	"int64":      dtypes.Int64,
	"uint64":     dtypes.Uint64,
	"float16":    dtypes.Float16,
	"bfloat16":   dtypes.BFloat16,
	"float32":    dtypes.Float32,
	"float64":    dtypes.Float64,
	"complex64":  dtypes.Complex64,
	"complex128": dtypes.Complex128,
	"f16":        dtypes.Float16,
	"half":       dtypes.Float16,
	"bf16":       dtypes.BFloat16,
	"f32":        dtypes.Float32,
	"float":      dtypes.Float32,
	"f64":        dtypes.Float64,
	"double":     dtypes.Float64,
	"i8":         dtypes.Int8,
	"u8":         dtypes.Uint8,
	"i32":        dtypes.Int32,
	"i64":        dtypes.Int64,
}

// Parse resolves a dtype name, case-insensitively.
func Parse(name string) (dtypes.DType, error) {
	dt, ok := names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return dtypes.InvalidDType, errors.Wrapf(ErrUnsupported, "unknown dtype name %q", name)
	}
	return dt, nil
}

// Size returns the element width of dt in bytes.
func Size(dt dtypes.DType) (int64, error) {
	if dt == dtypes.InvalidDType {
		return 0, errors.Wrap(ErrUnsupported, "invalid dtype")
	}
	n := dt.Size()
	if n <= 0 {
		return 0, errors.Wrapf(ErrUnsupported, "%s has no fixed byte width", dt)
	}
	return int64(n), nil
}

// Effective returns the staging-slot width for an element of size bytes.
func Effective(size int64) int64 {
	return max(size, MinStagingSize)
}

// Name returns the canonical lower-case name of dt.
func Name(dt dtypes.DType) string {
	return strings.ToLower(dt.String())
}
