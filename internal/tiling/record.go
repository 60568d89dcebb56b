package tiling

import (
	"fmt"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
)

// WorkspaceBytes is the scratch memory reserved for every launch when no
// finer bound is known.
const WorkspaceBytes int64 = 16 << 20

// Record is the finished, flat tiling plan handed to the kernel launcher.
//
// It holds only fixed-width integers and fixed-size arrays, so two records
// compare with == and copy by value. Unused plan slots are zero.
type Record struct {
	Family   Family
	Tag      uint64
	ElemSize int64

	Rank    int32
	Sizes   [shape.MaxRank]int64
	Strides [shape.MaxRank]int64
	InSizes [shape.MaxRank]int64
	Before  [shape.MaxRank]int64 // Shift, or pad-before.
	After   [shape.MaxRank]int64 // Pad-after.

	Core       PartitionPlan
	Secondary  PartitionPlan
	MainBuffer BufferPlan
	TailBuffer BufferPlan

	// Flat re-split, used by variants that stage the tensor as one run.
	Flat     PartitionPlan
	FlatMain BufferPlan
	FlatTail BufferPlan

	Wrap WrapPlan

	LaunchUnits    int64
	WorkspaceBytes int64
}

// setModel copies the canonical axes into the record.
func (r *Record) setModel(m shape.Model) {
	r.Rank = int32(m.Rank())
	for i, a := range m.Axes() {
		r.Sizes[i] = a.Size
		r.Strides[i] = a.Stride
		r.InSizes[i] = a.InSize
		r.Before[i] = a.ShiftOrPad
		r.After[i] = a.PadAfter
	}
}

// Model rebuilds the canonical shape model the record was planned over.
func (r Record) Model() (shape.Model, error) {
	if r.Rank < 0 || r.Rank > shape.MaxRank {
		return shape.Model{}, Errorf(KindInvalidRank, "record rank %d", r.Rank)
	}
	axes := make([]shape.Axis, r.Rank)
	for i := range axes {
		axes[i] = shape.Axis{Size: r.Sizes[i], InSize: r.InSizes[i], ShiftOrPad: r.Before[i], PadAfter: r.After[i]}
	}
	return shape.New(axes...)
}

// sizes returns the used sizes, clamping a corrupt rank to the array.
func (r Record) sizes() []int64 {
	return r.Sizes[:min(max(int(r.Rank), 0), shape.MaxRank)]
}

// NumElements returns the output element count.
func (r Record) NumElements() int64 {
	n := int64(1)
	for _, s := range r.sizes() {
		n *= s
	}
	return n
}

// IsEmpty reports whether the record is the trivial zero-work plan.
func (r Record) IsEmpty() bool {
	return r.NumElements() == 0
}

// Regions returns the populated wraparound copy regions.
func (r Record) Regions() []CopyRegion {
	return r.Wrap.List()
}

// ScratchBytes returns the scratch memory the launcher must reserve.
func (r Record) ScratchBytes() int64 {
	return r.WorkspaceBytes
}

// String returns a one-line summary.
func (r Record) String() string {
	return fmt.Sprintf("%s tag=%d units=%d sizes=%v core=%v", r.Family, r.Tag, r.LaunchUnits, r.sizes(), r.Core)
}

// Check validates the conservation and resource invariants every record
// must satisfy. Failures are KindInvariant.
func (r Record) Check(p platform.Profile) error {
	if r.LaunchUnits < 1 || r.LaunchUnits > p.UnitCount {
		return Errorf(KindInvariant, "launch units %d outside [1, %d]", r.LaunchUnits, p.UnitCount)
	}
	parts := []struct {
		name string
		plan PartitionPlan
	}{
		{"core", r.Core},
		{"secondary", r.Secondary},
		{"flat", r.Flat},
	}
	for _, pt := range parts {
		if err := checkPartition(pt.name, pt.plan, p.UnitCount); err != nil {
			return err
		}
	}
	split := CoreSplit{Primary: r.Core, Secondary: r.Secondary}
	if split.Units() > p.UnitCount {
		return Errorf(KindInvariant, "core split occupies %d of %d units", split.Units(), p.UnitCount)
	}

	bufs := []struct {
		name string
		plan BufferPlan
	}{
		{"main buffer", r.MainBuffer},
		{"tail buffer", r.TailBuffer},
		{"flat main buffer", r.FlatMain},
		{"flat tail buffer", r.FlatTail},
	}
	for _, b := range bufs {
		if err := checkBuffer(b.name, b.plan); err != nil {
			return err
		}
	}

	if r.Wrap.Count > 0 && r.Wrap.Elements() != r.Wrap.H*r.Wrap.W {
		return Errorf(KindInvariant, "wraparound regions move %d elements, plane holds %d", r.Wrap.Elements(), r.Wrap.H*r.Wrap.W)
	}
	if r.WorkspaceBytes < r.Wrap.ScratchBytes {
		return Errorf(KindInvariant, "workspace %d smaller than scratch %d", r.WorkspaceBytes, r.Wrap.ScratchBytes)
	}
	return nil
}

func checkPartition(name string, pp PartitionPlan, units int64) error {
	if !pp.Active() {
		return nil
	}
	if !pp.Conserves() {
		return Errorf(KindInvariant, "%s plan %v does not conserve its extent", name, pp)
	}
	if pp.Units < 1 || pp.Units > units {
		return Errorf(KindInvariant, "%s plan %v uses units outside [1, %d]", name, pp, units)
	}
	if pp.Extent > 0 && (pp.TailFactor < 1 || pp.TailFactor > pp.Factor) {
		return Errorf(KindInvariant, "%s plan %v has tail outside [1, factor]", name, pp)
	}
	return nil
}

func checkBuffer(name string, b BufferPlan) error {
	if !b.Active() {
		return nil
	}
	if !b.Conserves() {
		return Errorf(KindInvariant, "%s %v does not conserve its extent", name, b)
	}
	if b.Factor < 1 || b.TailFactor < 1 || b.TailFactor > b.Factor {
		return Errorf(KindInvariant, "%s %v has factor or tail out of range", name, b)
	}
	return nil
}
