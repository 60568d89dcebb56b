package shape

// JoinFunc reports whether outer and its inner neighbour may be fused.
type JoinFunc func(outer, inner Axis) bool

// FuseFunc combines outer and its inner neighbour into one axis.
type FuseFunc func(outer, inner Axis) Axis

// Merge collapses maximal runs of adjacent axes, scanning from the innermost
// axis outward. The fused axis replaces the run; element order is unchanged.
func (m Model) Merge(join JoinFunc, fuse FuseFunc) Model {
	axes := m.Axes()
	if len(axes) < 2 {
		return m
	}
	reversed := make([]Axis, 0, len(axes))
	cur := axes[len(axes)-1]
	for i := len(axes) - 2; i >= 0; i-- {
		if join(axes[i], cur) {
			cur = fuse(axes[i], cur)
			continue
		}
		reversed = append(reversed, cur)
		cur = axes[i]
	}
	reversed = append(reversed, cur)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return fromValid(reversed)
}

// fuseProduct multiplies extents; the fused axis carries no parameter.
func fuseProduct(outer, inner Axis) Axis {
	return Axis{Size: outer.Size * inner.Size, InSize: outer.InSize * inner.InSize}
}

// MergePlain merges runs of axes that carry no shift or pad.
func (m Model) MergePlain() Model {
	return m.Merge(func(outer, inner Axis) bool {
		return outer.Plain() && inner.Plain() && !outer.Broadcast() && !inner.Broadcast()
	}, fuseProduct)
}

// AbsorbPlain lets every axis absorb the unpadded axes inside it. Pads of the
// absorbing axis are scaled by the absorbed extent, which is exact for
// constant padding only.
func (m Model) AbsorbPlain() Model {
	return m.Merge(func(_, inner Axis) bool {
		return inner.Plain() && !inner.Broadcast()
	}, func(outer, inner Axis) Axis {
		return Axis{
			Size:       outer.Size * inner.Size,
			InSize:     outer.InSize * inner.InSize,
			ShiftOrPad: outer.ShiftOrPad * inner.Size,
			PadAfter:   outer.PadAfter * inner.Size,
		}
	})
}

// MergeBroadcast merges runs of axes with the same broadcast flag.
func (m Model) MergeBroadcast() Model {
	return m.Merge(func(outer, inner Axis) bool {
		return outer.Broadcast() == inner.Broadcast()
	}, fuseProduct)
}

// Flatten merges every axis into one.
func (m Model) Flatten() Model {
	return m.Merge(func(_, _ Axis) bool { return true }, fuseProduct)
}

// DropUnit removes parameterless axes of size 1. A model of only such axes
// becomes a single size-1 axis, never rank 0.
func (m Model) DropUnit() Model {
	kept := make([]Axis, 0, m.Rank())
	for _, a := range m.Axes() {
		if a.Size == 1 && a.InSize == 1 && a.Plain() {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		kept = append(kept, Axis{Size: 1, InSize: 1})
	}
	return fromValid(kept)
}
