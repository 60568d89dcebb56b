package tiling

import "fmt"

// FlatAxis is the Axis of a plan over the flattened tensor.
const FlatAxis = -1

// SplitKind says which iteration space a PartitionPlan divides.
type SplitKind uint8

// Split kinds.
const (
	// SplitNone marks an unused plan slot.
	SplitNone SplitKind = iota
	// SplitFused divides the fused extent of axes 0..Axis.
	SplitFused
	// SplitSingle divides axis Axis only; all other axes run in full.
	SplitSingle
	// SplitFlattened divides the flattened tensor.
	SplitFlattened
)

// String returns the kind name.
func (k SplitKind) String() string {
	switch k {
	case SplitFused:
		return "fused"
	case SplitSingle:
		return "single"
	case SplitFlattened:
		return "flat"
	default:
		return "none"
	}
}

// PartitionPlan splits Extent into Units contiguous groups of Factor, the
// last holding TailFactor.
type PartitionPlan struct {
	Kind       SplitKind
	Axis       int32
	Factor     int64
	Units      int64
	TailFactor int64
	Extent     int64
}

// Active reports whether the plan is in use.
func (p PartitionPlan) Active() bool {
	return p.Kind != SplitNone
}

// Conserves reports whether the groups add up to Extent exactly.
func (p PartitionPlan) Conserves() bool {
	return (p.Units-1)*p.Factor+p.TailFactor == p.Extent
}

// Count returns the number of indices unit u owns.
func (p PartitionPlan) Count(u int64) int64 {
	if u == p.Units-1 {
		return p.TailFactor
	}
	return p.Factor
}

// String returns a compact form.
func (p PartitionPlan) String() string {
	return fmt.Sprintf("%s(axis=%d factor=%d units=%d tail=%d extent=%d)",
		p.Kind, p.Axis, p.Factor, p.Units, p.TailFactor, p.Extent)
}

// CoreSplit is the work distribution across units. Secondary is active only
// in dual-split mode, where units form a Primary.Units x Secondary.Units grid.
type CoreSplit struct {
	Primary   PartitionPlan
	Secondary PartitionPlan
}

// Units returns the number of units the split occupies.
func (c CoreSplit) Units() int64 {
	if c.Secondary.Active() {
		return c.Primary.Units * c.Secondary.Units
	}
	return c.Primary.Units
}

// BufferPlan stages one unit's share through fast memory: Loops passes of
// Factor indices along Axis, the last pass holding TailFactor.
type BufferPlan struct {
	Axis        int32
	Factor      int64
	Loops       int64
	TailFactor  int64
	Extent      int64
	MaxElements int64
}

// Active reports whether the plan is in use.
func (b BufferPlan) Active() bool {
	return b.Loops > 0
}

// Conserves reports whether the passes add up to Extent exactly.
func (b BufferPlan) Conserves() bool {
	return (b.Loops-1)*b.Factor+b.TailFactor == b.Extent
}

// String returns a compact form.
func (b BufferPlan) String() string {
	return fmt.Sprintf("buffer(axis=%d factor=%d loops=%d tail=%d extent=%d max=%d)",
		b.Axis, b.Factor, b.Loops, b.TailFactor, b.Extent, b.MaxElements)
}

// BufferSplit holds the plans for a regular unit and for the tail unit.
type BufferSplit struct {
	Main BufferPlan
	Tail BufferPlan
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func roundUp(a, b int64) int64 {
	return ceilDiv(a, b) * b
}

// divide splits extent into at most parts groups.
func divide(extent, parts int64) (factor, used, tail int64) {
	factor = ceilDiv(extent, max(parts, 1))
	used = ceilDiv(extent, factor)
	tail = extent - (used-1)*factor
	return factor, used, tail
}
