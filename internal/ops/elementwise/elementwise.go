// Package elementwise plans same-shape n-ary elementwise operators.
package elementwise

import (
	"slices"

	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
)

// MaxInputs is the largest operand count one kernel accepts.
const MaxInputs = 8

// Variant is the closed set of elementwise kernel variants.
type Variant uint8

// Elementwise variants.
const (
	Flat Variant = iota
	Empty
)

// Variants lists every elementwise variant.
func Variants() []Variant {
	return []Variant{Flat, Empty}
}

// Tag returns the kernel key of v.
func (v Variant) Tag() uint64 {
	switch v {
	case Flat:
		return 10000
	case Empty:
		return 60000
	}
	return 0
}

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Flat:
		return "flat"
	case Empty:
		return "empty"
	}
	return "unknown"
}

// FromTag returns the variant with kernel key tag.
func FromTag(tag uint64) (Variant, bool) {
	for _, v := range Variants() {
		if v.Tag() == tag {
			return v, true
		}
	}
	return 0, false
}

// Strategy is the elementwise tiling strategy.
type Strategy struct{}

// New returns the elementwise strategy.
func New() Strategy {
	return Strategy{}
}

// Family implements tiling.Strategy.
func (Strategy) Family() tiling.Family {
	return tiling.FamilyElementwise
}

// EmptyVariant implements tiling.Strategy.
func (Strategy) EmptyVariant() tiling.Variant {
	return Empty
}

func inputs(req tiling.Request) int {
	if req.Inputs == 0 {
		return 2
	}
	return req.Inputs
}

// BuildShapeModel checks operand count and shapes, then flattens.
func (Strategy) BuildShapeModel(req tiling.Request, _ tiling.Env) (shape.Model, error) {
	if n := inputs(req); n < 1 || n > MaxInputs {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameterCount, "%d inputs, want 1 to %d", n, MaxInputs)
	}
	if req.InShape != nil && !slices.Equal(req.InShape, req.OutShape) {
		return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch, "input %v, output %v", req.InShape, req.OutShape)
	}
	m, err := shape.FromSizes(req.OutShape)
	if err != nil {
		return shape.Model{}, tiling.Wrap(tiling.KindInvalidRank, err, "output shape")
	}
	return m.Flatten(), nil
}

// ComputeCoreSplit splits the flattened tensor.
func (Strategy) ComputeCoreSplit(m shape.Model, env tiling.Env) (tiling.CoreSplit, error) {
	return tiling.CoreSplit{Primary: tiling.SplitFlat(m.NumElements(), env.ElemSize, env.Profile)}, nil
}

// ComputeBufferSplit keeps every operand and the result resident per pass.
func (Strategy) ComputeBufferSplit(_ shape.Model, core tiling.CoreSplit, env tiling.Env) (tiling.BufferSplit, error) {
	opts := tiling.BufferOptions{DoubleBuffer: true, LiveBuffers: int64(inputs(env.Request)) + 1}
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, opts)
	if err != nil {
		return tiling.BufferSplit{}, err
	}
	return tiling.SplitFlatBuffers(core.Primary, maxElems, tiling.AlignElems(env.ElemSize, env.Profile)), nil
}

// SelectVariant implements tiling.Strategy.
func (Strategy) SelectVariant(shape.Model, tiling.CoreSplit, tiling.BufferSplit, tiling.Env) (tiling.Selection, error) {
	return tiling.Selection{Variant: Flat}, nil
}
