package tiling

import (
	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
)

// Env is the per-call context every stage reads. It is never mutated.
type Env struct {
	Request  Request
	Profile  platform.Profile
	ElemSize int64
	Policy   DualPolicy
}

// Selection is the outcome of variant selection.
type Selection struct {
	Variant Variant

	// Flat re-split, for variants that stage the tensor as a single run.
	Flat        PartitionPlan
	FlatBuffers BufferSplit

	Wrap WrapPlan

	// LaunchUnits overrides the unit count implied by the splits when > 0.
	LaunchUnits int64
}

// Strategy is the tiling logic of one operator family. Each stage is a pure
// function of its arguments.
type Strategy interface {
	Family() Family
	// EmptyVariant is the variant of the trivial zero-work record.
	EmptyVariant() Variant
	// BuildShapeModel validates the request and returns its canonical model.
	BuildShapeModel(req Request, env Env) (shape.Model, error)
	// ComputeCoreSplit distributes work across units.
	ComputeCoreSplit(m shape.Model, env Env) (CoreSplit, error)
	// ComputeBufferSplit fits one unit's share into fast memory.
	ComputeBufferSplit(m shape.Model, core CoreSplit, env Env) (BufferSplit, error)
	// SelectVariant picks the kernel variant and any follow-up plans.
	SelectVariant(m shape.Model, core CoreSplit, buf BufferSplit, env Env) (Selection, error)
}

// Resolver finds the strategy of a family.
type Resolver interface {
	Strategy(f Family) (Strategy, bool)
}

// StrategySet is a fixed Resolver over a handful of strategies.
type StrategySet map[Family]Strategy

// Strategies returns a StrategySet holding list.
func Strategies(list ...Strategy) StrategySet {
	set := make(StrategySet, len(list))
	for _, s := range list {
		set[s.Family()] = s
	}
	return set
}

// Strategy implements Resolver.
func (s StrategySet) Strategy(f Family) (Strategy, bool) {
	st, ok := s[f]
	return st, ok
}
