package tiling

import (
	"strings"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
	"github.com/pkg/errors"
)

// Granule returns the smallest per-unit slice, in elements, that
// avoids splitting a cache line between units.
func Granule(elemSize int64, p platform.Profile) int64 {
	return max(1, p.CacheLineBytes/elemSize)
}

// SplitCore distributes the outer axes of m across units.
//
// Axes are fused from the outside in while each axis slab is larger than
// the granule, stopping once the fused extent reaches the unit count. The
// fused extent is divided evenly with the remainder on the last unit. When
// no axis qualifies the plan is one unit owning axis 0.
func SplitCore(m shape.Model, elemSize int64, p platform.Profile) PartitionPlan {
	granule := Granule(elemSize, p)
	fused := int64(1)
	axis := -1
	for i := 0; i < m.Rank(); i++ {
		if m.Size(i)*m.Stride(i) <= granule {
			break
		}
		fused *= m.Size(i)
		axis = i
		if fused >= p.UnitCount {
			break
		}
	}
	if axis < 0 {
		n := m.Size(0)
		return PartitionPlan{Kind: SplitFused, Axis: 0, Factor: n, Units: 1, TailFactor: n, Extent: n}
	}
	factor, used, tail := divide(fused, p.UnitCount)
	return PartitionPlan{Kind: SplitFused, Axis: int32(axis), Factor: factor, Units: used, TailFactor: tail, Extent: fused}
}

// SplitFlat distributes total elements across units, giving every unit at
// least one granule.
func SplitFlat(total, elemSize int64, p platform.Profile) PartitionPlan {
	if total <= 0 {
		return PartitionPlan{Kind: SplitFlattened, Axis: FlatAxis, Units: 1}
	}
	per := ceilDiv(total, p.UnitCount)
	per = min(max(per, Granule(elemSize, p)), total)
	used := ceilDiv(total, per)
	return PartitionPlan{
		Kind:       SplitFlattened,
		Axis:       FlatAxis,
		Factor:     per,
		Units:      used,
		TailFactor: total - (used-1)*per,
		Extent:     total,
	}
}

// SplitAxis divides one axis of the given extent into at most parts groups.
func SplitAxis(axis int, extent, parts int64) PartitionPlan {
	factor, used, tail := divide(extent, parts)
	return PartitionPlan{Kind: SplitSingle, Axis: int32(axis), Factor: factor, Units: used, TailFactor: tail, Extent: extent}
}

// fullAxis is a single-axis plan that keeps the whole axis on one unit.
func fullAxis(axis int, extent int64) PartitionPlan {
	return PartitionPlan{Kind: SplitSingle, Axis: int32(axis), Factor: extent, Units: 1, TailFactor: extent, Extent: extent}
}

// DualPolicy chooses the primary axis of a dual split.
type DualPolicy uint8

// Dual-split policies.
const (
	// DualWeighted prefers the candidate that occupies more units, with a
	// bonus for dividing the unit count evenly. Ties go to the first.
	DualWeighted DualPolicy = iota
	// DualPreferFirst always makes the first candidate primary.
	DualPreferFirst
	// DualPreferSecond always makes the second candidate primary.
	DualPreferSecond
	// DualOutermost makes the outer of the two axes primary.
	DualOutermost
)

// String returns the policy name.
func (d DualPolicy) String() string {
	switch d {
	case DualPreferFirst:
		return "first"
	case DualPreferSecond:
		return "second"
	case DualOutermost:
		return "outermost"
	default:
		return "weighted"
	}
}

// ParseDualPolicy resolves a policy name.
func ParseDualPolicy(name string) (DualPolicy, error) {
	switch strings.ToLower(name) {
	case "", "weighted":
		return DualWeighted, nil
	case "first":
		return DualPreferFirst, nil
	case "second":
		return DualPreferSecond, nil
	case "outermost":
		return DualOutermost, nil
	}
	return 0, errors.Errorf("unknown dual-split policy %q", name)
}

// DualCandidate is an independent outer axis eligible for a dual split.
type DualCandidate struct {
	Axis   int
	Extent int64
}

// axisWeight scores how well extent spreads over units.
func axisWeight(extent, units int64) int64 {
	w := ceilDiv(extent, ceilDiv(extent, units))
	if extent%units == 0 {
		w += units
	}
	return w
}

func (d DualPolicy) pick(first, second DualCandidate, units int64) (primary, secondary DualCandidate) {
	switch d {
	case DualPreferFirst:
		return first, second
	case DualPreferSecond:
		return second, first
	case DualOutermost:
		if second.Axis < first.Axis {
			return second, first
		}
		return first, second
	default:
		if axisWeight(second.Extent, units) > axisWeight(first.Extent, units) {
			return second, first
		}
		return first, second
	}
}

// SplitDual splits two independent axes. The primary takes the unit budget
// first; the secondary is divided into units/primary.Units parts when that
// is at least 2 and otherwise runs in full on every unit.
func SplitDual(first, second DualCandidate, p platform.Profile, policy DualPolicy) CoreSplit {
	primary, secondary := policy.pick(first, second, p.UnitCount)
	pp := SplitAxis(primary.Axis, primary.Extent, p.UnitCount)
	sp := fullAxis(secondary.Axis, secondary.Extent)
	if dFactor := p.UnitCount / pp.Units; dFactor >= 2 {
		sp = SplitAxis(secondary.Axis, secondary.Extent, dFactor)
	}
	return CoreSplit{Primary: pp, Secondary: sp}
}
