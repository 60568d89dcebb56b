// Package roll plans circular shifts along any subset of axes.
package roll

import (
	"slices"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/gomlx/gopjrt/dtypes"
)

// smallTailBytes is the trailing-row width below which a shifted last axis
// is handled by the small-tail kernels.
const smallTailBytes = 64

var supported = map[dtypes.DType]bool{
	dtypes.Bool:     true,
	dtypes.Int8:     true,
	dtypes.Uint8:    true,
	dtypes.Int16:    true,
	dtypes.Uint16:   true,
	dtypes.Int32:    true,
	dtypes.Uint32:   true,
	dtypes.Int64:    true,
	dtypes.Uint64:   true,
	dtypes.Float16:  true,
	dtypes.BFloat16: true,
	dtypes.Float32:  true,
	dtypes.Float64:  true,
}

// Strategy is the roll tiling strategy.
type Strategy struct{}

// New returns the roll strategy.
func New() Strategy {
	return Strategy{}
}

// Family implements tiling.Strategy.
func (Strategy) Family() tiling.Family {
	return tiling.FamilyRoll
}

// EmptyVariant implements tiling.Strategy.
func (Strategy) EmptyVariant() tiling.Variant {
	return Empty
}

// BuildShapeModel validates shifts and dims and canonicalizes the shape.
//
// Without dims exactly one shift is allowed and it rolls the flattened
// tensor. Repeated dims accumulate. Unshifted runs merge and size-1 axes
// drop.
func (Strategy) BuildShapeModel(req tiling.Request, _ tiling.Env) (shape.Model, error) {
	if !supported[req.DType] {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameter, "dtype %s not supported", req.DType)
	}
	sizes := req.Input()
	if len(sizes) > shape.MaxRank {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidRank, "rank %d exceeds %d", len(sizes), shape.MaxRank)
	}
	if req.InShape != nil && req.OutShape != nil && !slices.Equal(req.InShape, req.OutShape) {
		return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch, "input %v, output %v", req.InShape, req.OutShape)
	}
	if len(sizes) == 0 {
		sizes = []int64{1}
	}

	axes := make([]shape.Axis, len(sizes))
	for i, s := range sizes {
		axes[i] = shape.Axis{Size: s, InSize: s}
	}
	if len(req.Dims) == 0 {
		if len(req.Shifts) != 1 {
			return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameterCount,
				"%d shifts without dims, want exactly 1", len(req.Shifts))
		}
	} else if len(req.Shifts) != len(req.Dims) {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameterCount,
			"%d shifts for %d dims", len(req.Shifts), len(req.Dims))
	}
	for i, d := range req.Dims {
		ax, err := shape.NormalizeAxis(d, len(sizes))
		if err != nil {
			return shape.Model{}, tiling.Wrap(tiling.KindOutOfRangeAxis, err, "dims[%d]", i)
		}
		axes[ax].ShiftOrPad = shape.Mod(axes[ax].ShiftOrPad+req.Shifts[i], axes[ax].Size)
	}

	m, err := shape.New(axes...)
	if err != nil {
		return shape.Model{}, tiling.Wrap(tiling.KindShapeMismatch, err, "input shape")
	}
	if m.IsEmpty() {
		return m, nil
	}
	if len(req.Dims) == 0 {
		flat := m.Flatten()
		a := flat.Axis(0)
		a.ShiftOrPad = shape.Mod(req.Shifts[0], a.Size)
		m, err = shape.New(a)
		if err != nil {
			return shape.Model{}, tiling.Wrap(tiling.KindShapeMismatch, err, "flattened shape")
		}
	}
	return m.MergePlain().DropUnit(), nil
}

// plane returns the trailing H x W plane and its shifts. A rank-1 model is
// a single row.
func plane(m shape.Model) (h, w, shiftH, shiftW int64) {
	last := m.Last()
	if m.Rank() == 1 {
		return 1, last.Size, 0, last.ShiftOrPad
	}
	outer := m.Axis(m.Rank() - 2)
	return outer.Size, last.Size, outer.ShiftOrPad, last.ShiftOrPad
}

func smallTail(m shape.Model, elem int64, p platform.Profile) bool {
	h, w, _, shiftW := plane(m)
	if w*elem < smallTailBytes && shiftW > 0 {
		return true
	}
	return m.Rank() > 1 && h*w*elem < p.CacheLineBytes
}

// singleAxis reports whether a rank-1 model takes the flat path. Short
// shifted rows go to the small-tail kernels first.
func singleAxis(m shape.Model, env tiling.Env) bool {
	return m.Rank() == 1 && !smallTail(m, env.ElemSize, env.Profile)
}

func bufferOptions(m shape.Model, env tiling.Env) tiling.BufferOptions {
	vw := env.Profile.VectorWidthBytes
	switch {
	case smallTail(m, env.ElemSize, env.Profile):
		// Input and output stay resident, with a vector of slack on each side.
		return tiling.BufferOptions{
			DoubleBuffer:     true,
			LiveBuffers:      2,
			ReserveBytes:     vw,
			SlotReserveBytes: vw,
			LoopCountCap:     true,
		}
	case m.Rank() == 1:
		return tiling.BufferOptions{DoubleBuffer: true, LoopCountCap: true}
	default:
		return tiling.BufferOptions{
			DoubleBuffer: true,
			LoopCountCap: true,
			AlignInner:   true,
			TailSlot:     true,
			ShiftInner:   m.Last().ShiftOrPad,
		}
	}
}

// ComputeCoreSplit splits single-axis tensors flat and everything else over
// the fused outer axes.
func (Strategy) ComputeCoreSplit(m shape.Model, env tiling.Env) (tiling.CoreSplit, error) {
	if singleAxis(m, env) {
		return tiling.CoreSplit{Primary: tiling.SplitFlat(m.NumElements(), env.ElemSize, env.Profile)}, nil
	}
	return tiling.CoreSplit{Primary: tiling.SplitCore(m, env.ElemSize, env.Profile)}, nil
}

// ComputeBufferSplit stages each unit's share with the options its shape needs.
func (Strategy) ComputeBufferSplit(m shape.Model, core tiling.CoreSplit, env tiling.Env) (tiling.BufferSplit, error) {
	opts := bufferOptions(m, env)
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, opts)
	if err != nil {
		return tiling.BufferSplit{}, err
	}
	if singleAxis(m, env) {
		return tiling.SplitFlatBuffers(core.Primary, maxElems, tiling.AlignElems(env.ElemSize, env.Profile)), nil
	}
	aligned := tiling.AlignedInner(m.Last().Size, env.ElemSize, env.Profile, opts)
	return tiling.SplitBuffers(m, core, maxElems, aligned), nil
}

// SelectVariant walks the roll decision tree and adds the wraparound and
// flat re-split plans the chosen variant needs.
func (Strategy) SelectVariant(m shape.Model, _ tiling.CoreSplit, buf tiling.BufferSplit, env tiling.Env) (tiling.Selection, error) {
	p, elem := env.Profile, env.ElemSize
	h, w, shiftH, shiftW := plane(m)
	// Regions are pitched at the aligned row, without the staging tail slot.
	opts := bufferOptions(m, env)
	opts.TailSlot = false
	pitch := tiling.AlignedInner(w, elem, p, opts)
	sel := tiling.Selection{Wrap: tiling.PlanWrapAround(h, w, shiftH, shiftW, pitch, elem, p.VectorWidthBytes)}

	last := m.Rank() - 1
	switch axis := int(buf.Main.Axis); {
	case smallTail(m, elem, p):
		sel.Variant = SmallTailNoShiftLast
		if shiftW > 0 {
			sel.Variant = SmallTailShiftLast
		}
	case m.Rank() == 1:
		sel.Variant = SingleAxis
	case axis < last-1:
		sel.Variant = BeforeLastTwo
	case axis == last:
		sel.Variant = SplitLast
		return resplit(sel, m, env)
	case !sel.Wrap.Unaligned:
		sel.Variant = SecondLastAligned
	default:
		sel.Variant = SecondLastUnaligned
		return resplit(sel, m, env)
	}
	return sel, nil
}

// resplit adds a flat split of the whole tensor at row granularity.
func resplit(sel tiling.Selection, m shape.Model, env tiling.Env) (tiling.Selection, error) {
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, tiling.BufferOptions{DoubleBuffer: true, LoopCountCap: true})
	if err != nil {
		return tiling.Selection{}, err
	}
	sel.Flat = tiling.SplitFlat(m.NumElements(), env.ElemSize, env.Profile)
	sel.FlatBuffers = tiling.SplitFlatBuffers(sel.Flat, maxElems, tiling.AlignElems(env.ElemSize, env.Profile))
	sel.LaunchUnits = sel.Flat.Units
	return sel, nil
}
