package pad

import (
	"fmt"

	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
)

// Kind is the kernel shape of a pad variant.
type Kind uint8

// Pad kernel kinds.
const (
	// Slice crops the input; no pad is positive.
	Slice Kind = iota
	// Copy moves the input unchanged; every pad is zero.
	Copy
	// Scalar fills the output one element per thread.
	Scalar
	// ScalarWide is Scalar with 64-bit indexing.
	ScalarWide
	// CutLastDim stages slices of rows too wide for a buffer slot.
	CutLastDim
	// BigLastDim stages whole rows wider than half a vector.
	BigLastDim
	// SmallLastDimGather gathers narrow rows into vectors.
	SmallLastDimGather
	// SmallLastDimScatter scatters narrow input rows into a filled output.
	SmallLastDimScatter
	// Empty is the zero-element output.
	Empty
)

var kindNames = map[Kind]string{
	Slice:               "slice",
	Copy:                "copy",
	Scalar:              "scalar",
	ScalarWide:          "scalar-wide",
	CutLastDim:          "cut-last-dim",
	BigLastDim:          "big-last-dim",
	SmallLastDimGather:  "small-last-dim-gather",
	SmallLastDimScatter: "small-last-dim-scatter",
	Empty:               "empty",
}

// String returns the kind name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// staged reports whether the kind carries a buffer-axis depth.
func (k Kind) staged() bool {
	return k >= CutLastDim && k <= SmallLastDimScatter
}

// Variant is a pad kernel variant: a kind specialized for a mode and, for
// staged kinds, for how deep inside the tensor the buffer axis sits.
type Variant struct {
	Kind  Kind
	Mode  tiling.PadMode
	Depth int32 // rank - buffer axis; staged kinds only.
}

// Tag returns the kernel key of v.
//
// The key is base + 1000*mode + 10*depth, where base is 10000 for slice
// and copy, 20000 for the scalar kernels and 30000 for the staged ones.
func (v Variant) Tag() uint64 {
	if v.Kind == Empty {
		return 60000
	}
	mode := uint64(v.Mode) * 1000
	switch v.Kind {
	case Slice:
		return 10000 + mode
	case Copy:
		return 10001 + mode
	case Scalar:
		return 20000 + mode
	case ScalarWide:
		return 20001 + mode
	}
	return 30000 + uint64(v.Kind-CutLastDim) + mode + uint64(v.Depth)*10
}

// String returns the variant name.
func (v Variant) String() string {
	switch {
	case v.Kind == Empty:
		return "empty"
	case v.Kind.staged():
		return fmt.Sprintf("%s/%s/depth%d", v.Kind, v.Mode, v.Depth)
	default:
		return fmt.Sprintf("%s/%s", v.Kind, v.Mode)
	}
}

func (v Variant) valid() bool {
	if _, ok := kindNames[v.Kind]; !ok || v.Mode > tiling.PadCircular {
		return false
	}
	switch {
	case v.Kind == Empty:
		return v.Mode == tiling.PadConstant && v.Depth == 0
	case v.Kind == SmallLastDimScatter && v.Mode != tiling.PadConstant:
		return false
	case v.Kind.staged():
		return v.Depth >= 1 && v.Depth <= shape.MaxRank
	default:
		return v.Depth == 0
	}
}

// Variants lists every pad variant.
func Variants() []Variant {
	out := []Variant{{Kind: Empty}}
	for mode := tiling.PadConstant; mode <= tiling.PadCircular; mode++ {
		for k := Slice; k < Empty; k++ {
			if !k.staged() {
				out = append(out, Variant{Kind: k, Mode: mode})
				continue
			}
			for d := int32(1); d <= shape.MaxRank; d++ {
				if v := (Variant{Kind: k, Mode: mode, Depth: d}); v.valid() {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// FromTag decodes a kernel key.
func FromTag(tag uint64) (Variant, bool) {
	if tag == 60000 {
		return Variant{Kind: Empty}, true
	}
	base, rest := tag/10000, tag%10000
	mode := tiling.PadMode(rest / 1000)
	depth, k := int32(rest%1000/10), rest%10
	var v Variant
	switch base {
	case 1:
		v = Variant{Kind: Slice + Kind(k), Mode: mode}
		if k > 1 {
			return Variant{}, false
		}
	case 2:
		v = Variant{Kind: Scalar + Kind(k), Mode: mode}
		if k > 1 {
			return Variant{}, false
		}
	case 3:
		if k > 3 {
			return Variant{}, false
		}
		v = Variant{Kind: CutLastDim + Kind(k), Mode: mode, Depth: depth}
	default:
		return Variant{}, false
	}
	if !v.valid() || v.Tag() != tag {
		return Variant{}, false
	}
	return v, true
}
