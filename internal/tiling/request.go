package tiling

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// PadMode selects how padded elements are produced.
// The order is part of the pad kernel key layout.
type PadMode uint8

// Pad modes.
const (
	PadConstant PadMode = iota
	PadReflect
	PadSymmetric
	PadEdge
	PadCircular
)

// String returns the mode name.
func (m PadMode) String() string {
	switch m {
	case PadConstant:
		return "constant"
	case PadReflect:
		return "reflect"
	case PadSymmetric:
		return "symmetric"
	case PadEdge:
		return "edge"
	case PadCircular:
		return "circular"
	default:
		return fmt.Sprintf("PadMode(%d)", uint8(m))
	}
}

// ParsePadMode resolves a mode name.
func ParsePadMode(name string) (PadMode, error) {
	switch strings.ToLower(name) {
	case "", "constant":
		return PadConstant, nil
	case "reflect":
		return PadReflect, nil
	case "symmetric":
		return PadSymmetric, nil
	case "edge", "replicate":
		return PadEdge, nil
	case "circular", "wrap":
		return PadCircular, nil
	}
	return 0, errors.Errorf("unknown pad mode %q", name)
}

// PaddingLayout describes how Request.Paddings is ordered.
type PaddingLayout uint8

const (
	// PaddingInterleaved is [before0, after0, before1, after1, ...].
	PaddingInterleaved PaddingLayout = iota
	// PaddingGrouped is [before0, before1, ..., after0, after1, ...].
	PaddingGrouped
)

// Request is one operator invocation to plan. Shapes are already inferred;
// fields a family does not use are ignored by it.
type Request struct {
	Family        Family
	OutShape      []int64
	InShape       []int64 // Broadcast and pad input; nil means OutShape.
	Shifts        []int64
	Dims          []int64
	Paddings      []int64
	PaddingLayout PaddingLayout
	PadMode       PadMode
	Inputs        int // Elementwise operand count; 0 means 2.
	DType         dtypes.DType
}

// Input returns InShape, falling back to OutShape.
func (r Request) Input() []int64 {
	if r.InShape != nil {
		return r.InShape
	}
	return r.OutShape
}

// Key returns a canonical string identifying the request.
func (r Request) Key() string {
	return fmt.Sprintf("%s|out%v|in%v|s%v|d%v|p%v/%d|%s|n%d|%s",
		r.Family, r.OutShape, r.Input(), r.Shifts, r.Dims,
		r.Paddings, r.PaddingLayout, r.PadMode, r.Inputs, r.DType)
}
