// Package pad plans constant and mirror padding, including negative pads
// that crop.
package pad

import (
	"math"
	"slices"

	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/gomlx/gopjrt/dtypes"
)

const (
	// scalarElements is the output size at or below which the scalar kernel wins.
	scalarElements = 4096
	// slotCapBytes bounds one staging slot.
	slotCapBytes = 64 << 10
)

// stagedRank is the highest rank the staged kernels of each mode handle.
var stagedRank = map[tiling.PadMode]int{
	tiling.PadConstant:  shape.MaxRank,
	tiling.PadReflect:   5,
	tiling.PadSymmetric: 5,
	tiling.PadEdge:      4,
	tiling.PadCircular:  5,
}

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

// Strategy is the pad tiling strategy.
type Strategy struct{}

// New returns the pad strategy.
func New() Strategy {
	return Strategy{}
}

// Family implements tiling.Strategy.
func (Strategy) Family() tiling.Family {
	return tiling.FamilyPad
}

// EmptyVariant implements tiling.Strategy.
func (Strategy) EmptyVariant() tiling.Variant {
	return Variant{Kind: Empty}
}

// splitPads returns the per-axis pads of req for a rank-n input.
func splitPads(req tiling.Request, n int) (before, after []int64) {
	p := req.Paddings
	if req.PaddingLayout == tiling.PaddingGrouped {
		return p[:n], p[n:]
	}
	before, after = make([]int64, n), make([]int64, n)
	for i := range n {
		before[i], after[i] = p[2*i], p[2*i+1]
	}
	return before, after
}

// checkMode validates the pads of one axis against what mode can produce.
func checkMode(mode tiling.PadMode, axis int, in, before, after int64) error {
	limit := int64(math.MaxInt64)
	switch mode {
	case tiling.PadConstant:
	case tiling.PadReflect:
		limit = in - 1
	case tiling.PadSymmetric, tiling.PadCircular:
		limit = in
	case tiling.PadEdge:
		if in == 0 && (before != 0 || after != 0) {
			return tiling.Errorf(tiling.KindInvalidParameter, "axis %d: edge pad of an empty axis", axis)
		}
	default:
		return tiling.Errorf(tiling.KindInvalidParameter, "unknown pad mode %s", mode)
	}
	if before > limit || after > limit {
		return tiling.Errorf(tiling.KindInvalidParameter,
			"axis %d: %s pads (%d, %d) exceed %d for input extent %d", axis, mode, before, after, limit, in)
	}
	return nil
}

// BuildShapeModel validates the paddings and canonicalizes the shape.
//
// Constant padding lets a padded axis absorb the unpadded axes inside it.
// Mirror modes sample neighbours along each axis, so only unpadded runs
// merge.
func (Strategy) BuildShapeModel(req tiling.Request, _ tiling.Env) (shape.Model, error) {
	if !supported[req.DType] {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameter, "dtype %s not supported", req.DType)
	}
	if req.InShape == nil {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameter, "pad needs an input shape")
	}
	in := req.InShape
	if len(in) > shape.MaxRank {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidRank, "rank %d exceeds %d", len(in), shape.MaxRank)
	}
	if len(in) == 0 {
		in = []int64{1}
	}
	if len(req.Paddings) != 2*len(in) {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameterCount,
			"%d paddings for rank %d, want %d", len(req.Paddings), len(in), 2*len(in))
	}

	before, after := splitPads(req, len(in))
	axes := make([]shape.Axis, len(in))
	out := make([]int64, len(in))
	for i, n := range in {
		if n < 0 {
			return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch, "axis %d: negative input extent %d", i, n)
		}
		out[i] = n + before[i] + after[i]
		if out[i] < 0 {
			return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameter,
				"axis %d: pads (%d, %d) crop more than extent %d", i, before[i], after[i], n)
		}
		if err := checkMode(req.PadMode, i, n, before[i], after[i]); err != nil {
			return shape.Model{}, err
		}
		axes[i] = shape.Axis{Size: out[i], InSize: n, ShiftOrPad: before[i], PadAfter: after[i]}
	}
	if req.OutShape != nil && len(req.InShape) > 0 && !slices.Equal(req.OutShape, out) {
		return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch, "output %v, padded input gives %v", req.OutShape, out)
	}

	m, err := shape.New(axes...)
	if err != nil {
		return shape.Model{}, tiling.Wrap(tiling.KindShapeMismatch, err, "padded shape")
	}
	if m.IsEmpty() {
		return m, nil
	}
	if req.PadMode == tiling.PadConstant {
		return m.AbsorbPlain().DropUnit(), nil
	}
	return m.MergePlain().DropUnit(), nil
}

// rowClass sorts the output rows by how they fit a staging slot.
type rowClass uint8

const (
	rowSmall rowClass = iota
	rowBig
	rowCut
)

func slotBytes(env tiling.Env) int64 {
	return min(env.Profile.FastMemBytes/2-env.Profile.VectorWidthBytes, slotCapBytes)
}

func classify(m shape.Model, env tiling.Env) rowClass {
	vw := env.Profile.VectorWidthBytes
	row := m.Last().Size * env.ElemSize
	aligned := (row + vw - 1) / vw * vw
	switch {
	case aligned*2 > slotBytes(env), m.Rank() == 1 && row > vw/2:
		return rowCut
	case row > vw/2:
		return rowBig
	default:
		return rowSmall
	}
}

func bufferOptions(c rowClass, env tiling.Env) tiling.BufferOptions {
	vw := env.Profile.VectorWidthBytes
	if c == rowSmall {
		// Input and output rows stay resident side by side.
		return tiling.BufferOptions{
			DoubleBuffer: true,
			LiveBuffers:  2,
			ReserveBytes: 2 * vw,
			SlotCapBytes: slotCapBytes,
			AlignInner:   true,
		}
	}
	return tiling.BufferOptions{
		DoubleBuffer:     true,
		SlotReserveBytes: vw,
		SlotCapBytes:     slotCapBytes,
		AlignInner:       true,
	}
}

// ComputeCoreSplit distributes the fused outer output axes across units.
func (Strategy) ComputeCoreSplit(m shape.Model, env tiling.Env) (tiling.CoreSplit, error) {
	return tiling.CoreSplit{Primary: tiling.SplitCore(m, env.ElemSize, env.Profile)}, nil
}

// ComputeBufferSplit stages output rows; rows wider than a slot are cut
// along the last axis.
func (Strategy) ComputeBufferSplit(m shape.Model, core tiling.CoreSplit, env tiling.Env) (tiling.BufferSplit, error) {
	c := classify(m, env)
	opts := bufferOptions(c, env)
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, opts)
	if err != nil {
		return tiling.BufferSplit{}, err
	}
	aligned := tiling.AlignedInner(m.Last().Size, env.ElemSize, env.Profile, opts)
	if c != rowCut {
		return tiling.SplitBuffers(m, core, maxElems, aligned), nil
	}
	b, last := tiling.BoundOf(core), m.Rank()-1
	return tiling.BufferSplit{
		Main: tiling.SplitBufferAt(m, b, last, false, maxElems, aligned),
		Tail: tiling.SplitBufferAt(m, b, last, true, maxElems, aligned),
	}, nil
}

// signs reports whether any pad of m is positive and whether any is negative.
func signs(m shape.Model) (pos, neg bool) {
	for _, a := range m.Axes() {
		for _, p := range [2]int64{a.ShiftOrPad, a.PadAfter} {
			pos = pos || p > 0
			neg = neg || p < 0
		}
	}
	return pos, neg
}

// SelectVariant picks the pad kernel. Copy and scalar kernels are re-split
// flat over the output.
func (Strategy) SelectVariant(m shape.Model, _ tiling.CoreSplit, buf tiling.BufferSplit, env tiling.Env) (tiling.Selection, error) {
	mode := env.Request.PadMode
	pos, neg := signs(m)
	switch {
	case !pos && !neg:
		return flat(Variant{Kind: Copy, Mode: mode}, m, env)
	case !pos:
		return tiling.Selection{Variant: Variant{Kind: Slice, Mode: mode}}, nil
	case neg, m.NumElements() <= scalarElements, m.InElements() == 0, m.Rank() > stagedRank[mode]:
		kind := Scalar
		if m.NumElements() > math.MaxInt32 {
			kind = ScalarWide
		}
		return flat(Variant{Kind: kind, Mode: mode}, m, env)
	}

	v := Variant{Mode: mode, Depth: int32(m.Rank()) - buf.Main.Axis}
	switch classify(m, env) {
	case rowCut:
		v.Kind = CutLastDim
	case rowBig:
		v.Kind = BigLastDim
	default:
		v.Kind = SmallLastDimGather
		if mode == tiling.PadConstant && scatter(m, env) {
			v.Kind = SmallLastDimScatter
		}
	}
	return tiling.Selection{Variant: v}, nil
}

// scatter reports whether narrow rows are cheaper to scatter into a filled
// output than to gather. It looks at the first axis, from the inside, whose
// trailing output reaches one vector.
func scatter(m shape.Model, env tiling.Env) bool {
	last := m.Rank() - 1
	prod := env.ElemSize
	for i := last; i >= 0; i-- {
		prod *= m.Size(i)
		if prod < env.Profile.VectorWidthBytes {
			continue
		}
		switch last - i {
		case 1:
			return m.Axis(last).InSize*2 < m.Size(last)
		case 2:
			in := m.Axis(last).InSize * m.Axis(last-1).InSize
			return in*2 < m.Size(last)*m.Size(last-1)
		}
		return false
	}
	return false
}

// flat re-splits the output as one contiguous run.
func flat(v Variant, m shape.Model, env tiling.Env) (tiling.Selection, error) {
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, tiling.BufferOptions{DoubleBuffer: true, SlotCapBytes: slotCapBytes})
	if err != nil {
		return tiling.Selection{}, err
	}
	sel := tiling.Selection{Variant: v, Flat: tiling.SplitFlat(m.NumElements(), env.ElemSize, env.Profile)}
	sel.FlatBuffers = tiling.SplitFlatBuffers(sel.Flat, maxElems, tiling.AlignElems(env.ElemSize, env.Profile))
	sel.LaunchUnits = sel.Flat.Units
	return sel, nil
}
