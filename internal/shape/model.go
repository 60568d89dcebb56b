package shape

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Model is an immutable, canonical ordered list of axes with consistent
// row-major strides. The zero Model has rank 0 and is never returned by New.
type Model struct {
	axes AxisVec
}

// New builds a Model from axes, recomputing strides.
// A rank-0 input is treated as a single axis of size 1.
func New(axes ...Axis) (Model, error) {
	if len(axes) == 0 {
		axes = []Axis{{Size: 1, InSize: 1}}
	}
	for i, a := range axes {
		if a.Size < 0 || a.InSize < 0 {
			return Model{}, errors.Wrapf(ErrNegativeSize, "axis %d: size=%d in=%d", i, a.Size, a.InSize)
		}
	}
	v, err := vecOf(axes)
	if err != nil {
		return Model{}, err
	}
	return Model{axes: restride(v)}, nil
}

// FromSizes builds a Model whose input and output extents match.
func FromSizes(sizes []int64) (Model, error) {
	return New(lo.Map(sizes, func(s int64, _ int) Axis {
		return Axis{Size: s, InSize: s}
	})...)
}

// restride recomputes strides by the suffix-product rule.
func restride(v AxisVec) AxisVec {
	stride := int64(1)
	for i := v.n - 1; i >= 0; i-- {
		v.axes[i].Stride = stride
		stride *= v.axes[i].Size
	}
	return v
}

// fromValid wraps axes already known to satisfy the rank and size invariants.
func fromValid(axes []Axis) Model {
	var v AxisVec
	v.n = copy(v.axes[:], axes)
	return Model{axes: restride(v)}
}

// Rank returns the number of axes.
func (m Model) Rank() int {
	return m.axes.Len()
}

// Axis returns axis i.
func (m Model) Axis(i int) Axis {
	return m.axes.At(i)
}

// Axes returns a copy of the axes.
func (m Model) Axes() []Axis {
	return m.axes.Slice()
}

// Vec returns the bounded axis vector backing the model.
func (m Model) Vec() AxisVec {
	return m.axes
}

// Size returns the output extent of axis i.
func (m Model) Size(i int) int64 {
	return m.axes.At(i).Size
}

// Stride returns the stride of axis i.
func (m Model) Stride(i int) int64 {
	return m.axes.At(i).Stride
}

// Last returns the innermost axis.
func (m Model) Last() Axis {
	return m.axes.At(m.axes.Len() - 1)
}

// Sizes returns the output extents.
func (m Model) Sizes() []int64 {
	return lo.Map(m.Axes(), func(a Axis, _ int) int64 { return a.Size })
}

// InSizes returns the input extents.
func (m Model) InSizes() []int64 {
	return lo.Map(m.Axes(), func(a Axis, _ int) int64 { return a.InSize })
}

// NumElements returns the number of output elements.
func (m Model) NumElements() int64 {
	return product(m.Sizes())
}

// InElements returns the number of input elements.
func (m Model) InElements() int64 {
	return product(m.InSizes())
}

// IsEmpty reports whether any output axis has size 0.
func (m Model) IsEmpty() bool {
	return lo.ContainsBy(m.Axes(), func(a Axis) bool { return a.Size == 0 })
}

// Equal reports whether two models have identical axes.
func (m Model) Equal(other Model) bool {
	return m == other
}

// String returns the axes as "[a b c]".
func (m Model) String() string {
	parts := lo.Map(m.Axes(), func(a Axis, _ int) string { return a.String() })
	return "[" + strings.Join(parts, " ") + "]"
}

func product(sizes []int64) int64 {
	return lo.Reduce(sizes, func(acc, s int64, _ int) int64 { return acc * s }, int64(1))
}
