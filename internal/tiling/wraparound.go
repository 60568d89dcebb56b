package tiling

import "fmt"

// MaxRegions bounds the copy regions of one wraparound plane.
const MaxRegions = 4

// CopyRegion is one rectangular strided copy: BlockCount rows of BlockLen
// elements. Offsets and strides are in elements; strides are row pitches.
type CopyRegion struct {
	SrcOffset  int64
	DstOffset  int64
	BlockCount int64
	BlockLen   int64
	SrcStride  int64
	DstStride  int64
}

// Elements returns the number of elements the region moves.
func (r CopyRegion) Elements() int64 {
	return r.BlockCount * r.BlockLen
}

// String returns a compact form.
func (r CopyRegion) String() string {
	return fmt.Sprintf("copy(src=%d dst=%d %dx%d pitch=%d/%d)",
		r.SrcOffset, r.DstOffset, r.BlockCount, r.BlockLen, r.SrcStride, r.DstStride)
}

// WrapPlan moves an H x W plane staged at row pitch SrcPitch to a dense
// H x W destination, rolled by ShiftH rows and ShiftW columns.
type WrapPlan struct {
	H, W           int64
	ShiftH, ShiftW int64
	SrcPitch       int64
	Count          int32
	Regions        [MaxRegions]CopyRegion
	Unaligned      bool  // An extra unaligned-copy pass is needed.
	ScratchBytes   int64 // Gather/scatter scratch for the unaligned pass.
}

// populated returns the used regions, clamping a corrupt count.
func (w WrapPlan) populated() []CopyRegion {
	return w.Regions[:min(max(int(w.Count), 0), MaxRegions)]
}

// List returns the populated regions.
func (w WrapPlan) List() []CopyRegion {
	regions := w.populated()
	out := make([]CopyRegion, len(regions))
	copy(out, regions)
	return out
}

// Elements returns the number of elements all regions move.
func (w WrapPlan) Elements() int64 {
	var n int64
	for _, r := range w.populated() {
		n += r.Elements()
	}
	return n
}

// WrapUnaligned reports whether the column boundary of a roll by shiftW on
// rows of w elements falls off the vector alignment.
func WrapUnaligned(w, shiftW, elemSize, vectorWidth int64) bool {
	return shiftW > 0 && ((w-shiftW)*elemSize)%vectorWidth != 0
}

// PlanWrapAround decomposes the rolled copy of an h x w plane into the
// fewest rectangular regions: one when nothing wraps, two when a single
// axis wraps, four when both do. Shifts must already lie in [0, size).
func PlanWrapAround(h, w, shiftH, shiftW, pitch, elemSize, vectorWidth int64) WrapPlan {
	wp := WrapPlan{H: h, W: w, ShiftH: shiftH, ShiftW: shiftW, SrcPitch: pitch}
	add := func(src, dst, rows, cols int64) {
		wp.Regions[wp.Count] = CopyRegion{
			SrcOffset:  src,
			DstOffset:  dst,
			BlockCount: rows,
			BlockLen:   cols,
			SrcStride:  pitch,
			DstStride:  w,
		}
		wp.Count++
	}

	keepH, keepW := h-shiftH, w-shiftW
	switch {
	case shiftH > 0 && shiftW > 0:
		add(0, shiftH*w+shiftW, keepH, keepW)
		add(keepW, shiftH*w, keepH, shiftW)
		add(keepH*pitch, shiftW, shiftH, keepW)
		add(keepH*pitch+keepW, 0, shiftH, shiftW)
	case shiftW > 0:
		add(0, shiftW, h, keepW)
		add(keepW, 0, h, shiftW)
	case shiftH > 0:
		add(0, shiftH*w, keepH, w)
		add(keepH*pitch, 0, shiftH, w)
	default:
		add(0, 0, h, w)
	}

	if WrapUnaligned(w, shiftW, elemSize, vectorWidth) {
		wp.Unaligned = true
		wp.ScratchBytes = 2 * vectorWidth
	}
	return wp
}
