package tiling

import (
	"github.com/born-ml/tiling/internal/dtype"
	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
)

// LoopCountLimit is the largest value of the kernel's 16-bit loop counter.
const LoopCountLimit = 65535

// BufferOptions shapes the fast-memory budget of one staging pass.
type BufferOptions struct {
	DoubleBuffer     bool  // Halve the budget so staging overlaps compute.
	LiveBuffers      int64 // Buffers resident per pass, e.g. input and output; 0 means 1.
	ReserveBytes     int64 // Taken off the whole buffer before it is divided.
	SlotReserveBytes int64 // Taken off each slot after division.
	SlotCapBytes     int64 // Upper bound on one slot; 0 means none.
	LoopCountCap     bool  // Respect LoopCountLimit for 1-byte elements.
	AlignInner       bool  // Round the innermost axis up to the vector width.
	TailSlot         bool  // Add one alignment slot when the trailing share is unaligned.
	ShiftInner       int64 // Shift of the innermost axis, for TailSlot.
}

// MaxElements returns how many elements a single staging pass holds.
// It fails with KindInfeasible when not even one element fits.
func MaxElements(elemSize int64, p platform.Profile, o BufferOptions) (int64, error) {
	budget := p.FastMemBytes - o.ReserveBytes
	if o.DoubleBuffer {
		budget /= 2
	}
	budget /= max(o.LiveBuffers, 1)
	budget -= o.SlotReserveBytes
	if o.SlotCapBytes > 0 {
		budget = min(budget, o.SlotCapBytes)
	}
	if o.LoopCountCap && elemSize <= 1 {
		budget = min(budget, LoopCountLimit*elemSize-2*p.VectorWidthBytes)
	}
	n := budget / dtype.Effective(elemSize)
	if n < 1 {
		return 0, Errorf(KindInfeasible, "fast memory of %d bytes leaves %d bytes per pass, element needs %d",
			p.FastMemBytes, budget, dtype.Effective(elemSize))
	}
	return n, nil
}

// AlignElems returns the vector width in elements.
func AlignElems(elemSize int64, p platform.Profile) int64 {
	return max(1, p.VectorWidthBytes/elemSize)
}

// AlignedInner returns the staged length of an innermost axis of size w.
func AlignedInner(w, elemSize int64, p platform.Profile, o BufferOptions) int64 {
	if !o.AlignInner {
		return w
	}
	unit := AlignElems(elemSize, p)
	aligned := roundUp(w, unit)
	if o.TailSlot && (w-o.ShiftInner)%unit != 0 {
		aligned += unit
	}
	return aligned
}

// Bound is where a buffer walk stops: the innermost axis that is split
// across units, and the per-unit counts along it.
type Bound struct {
	Axis int
	Main int64
	Tail int64
}

// BoundOf returns the bound implied by a hierarchical core split.
func BoundOf(c CoreSplit) Bound {
	p := c.Primary
	if c.Secondary.Active() && c.Secondary.Axis > p.Axis {
		p = c.Secondary
	}
	return Bound{Axis: int(p.Axis), Main: p.Factor, Tail: p.TailFactor}
}

// SplitBuffer plans how one unit stages its share of m.
//
// Axes are walked from the innermost outward down to the bound axis,
// multiplying extents (the innermost one at its aligned length), until the
// product first exceeds maxElems. That axis is split; every axis inside it
// is staged whole. On the bound axis the per-unit count replaces the size.
func SplitBuffer(m shape.Model, b Bound, tail bool, maxElems, alignedInner int64) BufferPlan {
	last := m.Rank() - 1
	axis := last
	prod := int64(1)
	for i := last; i >= b.Axis; i-- {
		n := m.Size(i)
		if i == last {
			n = alignedInner
		}
		prod *= n
		axis = i
		if prod > maxElems {
			break
		}
	}

	return SplitBufferAt(m, b, axis, tail, maxElems, alignedInner)
}

// SplitBufferAt plans staging with axis as the split axis. Axes inside it
// are staged whole; axis must not lie outside b.Axis.
func SplitBufferAt(m shape.Model, b Bound, axis int, tail bool, maxElems, alignedInner int64) BufferPlan {
	last := m.Rank() - 1
	slab := int64(1)
	if axis != last {
		slab = m.Stride(axis) / m.Size(last) * alignedInner
	}
	count := m.Size(axis)
	if axis == b.Axis {
		count = b.Main
		if tail {
			count = b.Tail
		}
	}
	factor := min(max(maxElems/slab, 1), count)
	loops := ceilDiv(count, factor)
	return BufferPlan{
		Axis:        int32(axis),
		Factor:      factor,
		Loops:       loops,
		TailFactor:  count - (loops-1)*factor,
		Extent:      count,
		MaxElements: maxElems,
	}
}

// SplitFlatBuffer plans how one unit stages count contiguous elements.
// Partial passes are rounded down to align elements when possible.
func SplitFlatBuffer(count, maxElems, align int64) BufferPlan {
	factor := min(maxElems, count)
	if factor < count && factor > align {
		factor -= factor % align
	}
	factor = max(factor, 1)
	loops := ceilDiv(count, factor)
	return BufferPlan{
		Axis:        FlatAxis,
		Factor:      factor,
		Loops:       loops,
		TailFactor:  count - (loops-1)*factor,
		Extent:      count,
		MaxElements: maxElems,
	}
}

// SplitBuffers plans the regular and tail units of a hierarchical split.
func SplitBuffers(m shape.Model, c CoreSplit, maxElems, alignedInner int64) BufferSplit {
	b := BoundOf(c)
	return BufferSplit{
		Main: SplitBuffer(m, b, false, maxElems, alignedInner),
		Tail: SplitBuffer(m, b, true, maxElems, alignedInner),
	}
}

// SplitFlatBuffers plans the regular and tail units of a flat split.
func SplitFlatBuffers(p PartitionPlan, maxElems, align int64) BufferSplit {
	return BufferSplit{
		Main: SplitFlatBuffer(p.Factor, maxElems, align),
		Tail: SplitFlatBuffer(p.TailFactor, maxElems, align),
	}
}
