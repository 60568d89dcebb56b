// Package broadcast plans the expansion of an input to a larger output
// shape along size-1 axes.
package broadcast

import (
	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/samber/lo"
)

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

// Strategy is the broadcast tiling strategy.
type Strategy struct{}

// New returns the broadcast strategy.
func New() Strategy {
	return Strategy{}
}

// Family implements tiling.Strategy.
func (Strategy) Family() tiling.Family {
	return tiling.FamilyBroadcast
}

// EmptyVariant implements tiling.Strategy.
func (Strategy) EmptyVariant() tiling.Variant {
	return Empty
}

// BuildShapeModel aligns the input to the output rank and canonicalizes.
//
// The input is left-padded with ones. Every axis must keep its extent or
// expand from 1. Output axes of size 1 drop, then runs with the same
// broadcast flag merge.
func (Strategy) BuildShapeModel(req tiling.Request, _ tiling.Env) (shape.Model, error) {
	if !supported[req.DType] {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidParameter, "dtype %s not supported", req.DType)
	}
	out, in := req.OutShape, req.Input()
	if len(out) > shape.MaxRank {
		return shape.Model{}, tiling.Errorf(tiling.KindInvalidRank, "rank %d exceeds %d", len(out), shape.MaxRank)
	}
	if len(in) > len(out) {
		return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch, "input %v has more axes than output %v", in, out)
	}

	lead := len(out) - len(in)
	axes := make([]shape.Axis, len(out))
	for i, n := range out {
		src := int64(1)
		if i >= lead {
			src = in[i-lead]
		}
		if src != n && src != 1 {
			return shape.Model{}, tiling.Errorf(tiling.KindShapeMismatch,
				"axis %d: input extent %d cannot broadcast to %d", i, src, n)
		}
		axes[i] = shape.Axis{Size: n, InSize: src}
	}

	m, err := shape.New(axes...)
	if err != nil {
		return shape.Model{}, tiling.Wrap(tiling.KindShapeMismatch, err, "output shape")
	}
	if m.IsEmpty() {
		return m, nil
	}
	return m.DropUnit().MergeBroadcast(), nil
}

// dualCandidates returns the widest broadcast and the widest copied outer
// axis. ok is false unless both kinds are present.
func dualCandidates(m shape.Model) (brc, cp tiling.DualCandidate, ok bool) {
	var brcs, cps []tiling.DualCandidate
	for i := 0; i < m.Rank()-1; i++ {
		c := tiling.DualCandidate{Axis: i, Extent: m.Size(i)}
		if m.Axis(i).Broadcast() {
			brcs = append(brcs, c)
		} else {
			cps = append(cps, c)
		}
	}
	if len(brcs) == 0 || len(cps) == 0 {
		return brc, cp, false
	}
	wider := func(a, b tiling.DualCandidate) bool { return a.Extent > b.Extent }
	return lo.MaxBy(brcs, wider), lo.MaxBy(cps, wider), true
}

// ComputeCoreSplit uses a dual split when the outer axes mix broadcast and
// copied axes, and the fused outer split otherwise.
func (Strategy) ComputeCoreSplit(m shape.Model, env tiling.Env) (tiling.CoreSplit, error) {
	if brc, cp, ok := dualCandidates(m); ok {
		return tiling.SplitDual(brc, cp, env.Profile, env.Policy), nil
	}
	return tiling.CoreSplit{Primary: tiling.SplitCore(m, env.ElemSize, env.Profile)}, nil
}

func bufferOptions() tiling.BufferOptions {
	// The staged input and its expansion share the buffer.
	return tiling.BufferOptions{DoubleBuffer: true, LiveBuffers: 2, AlignInner: true}
}

// ComputeBufferSplit stages each unit's share of the output.
func (Strategy) ComputeBufferSplit(m shape.Model, core tiling.CoreSplit, env tiling.Env) (tiling.BufferSplit, error) {
	opts := bufferOptions()
	maxElems, err := tiling.MaxElements(env.ElemSize, env.Profile, opts)
	if err != nil {
		return tiling.BufferSplit{}, err
	}
	aligned := tiling.AlignedInner(m.Last().Size, env.ElemSize, env.Profile, opts)
	return tiling.SplitBuffers(m, core, maxElems, aligned), nil
}

// SelectVariant picks the kernel by the width and flag of the last axis.
// Rows narrower than a cache line go through strided transfers.
func (Strategy) SelectVariant(m shape.Model, _ tiling.CoreSplit, buf tiling.BufferSplit, env tiling.Env) (tiling.Selection, error) {
	last := m.Last()
	gate := tiling.Granule(env.ElemSize, env.Profile)
	var v Variant
	switch {
	case last.Size >= buf.Main.MaxElements && !last.Broadcast():
		v = LastDimLargeCopy
	case last.Size >= buf.Main.MaxElements:
		v = LastDimLargeBroadcast
	case m.Rank() == 1 && !last.Broadcast(),
		!last.Broadcast() && 2*last.Size > gate,
		last.Broadcast() && last.Size >= gate:
		v = BufferBroadcast
	default:
		v = StridedCopy
	}
	return tiling.Selection{Variant: v}, nil
}
