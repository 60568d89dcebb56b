package shape

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxRank is the largest number of axes a Model can hold.
const MaxRank = 8

// Common errors.
var (
	ErrRankOverflow     = errors.New("rank exceeds maximum")
	ErrNegativeSize     = errors.New("negative axis size")
	ErrAxisOutOfRange   = errors.New("axis out of range")
	ErrIndexOutOfBounds = errors.New("axis index out of bounds")
)

// Axis describes one axis of a tensor in row-major order.
type Axis struct {
	Size       int64 // Output extent.
	Stride     int64 // Flattened-index multiplier, owned by the Model.
	InSize     int64 // Input extent; equals Size unless the operator resizes the axis.
	ShiftOrPad int64 // Shift amount, or pad-before for pad operators.
	PadAfter   int64 // Pad-after; zero for everything but pad operators.
}

// Plain reports whether the axis carries no per-axis parameter.
func (a Axis) Plain() bool {
	return a.ShiftOrPad == 0 && a.PadAfter == 0
}

// Broadcast reports whether the axis is expanded from a smaller input extent.
func (a Axis) Broadcast() bool {
	return a.InSize != a.Size
}

// String returns a compact human readable form.
func (a Axis) String() string {
	if a.Plain() && !a.Broadcast() {
		return fmt.Sprintf("%d", a.Size)
	}
	return fmt.Sprintf("%d<-%d(%+d,%+d)", a.Size, a.InSize, a.ShiftOrPad, a.PadAfter)
}

// AxisVec is a fixed-capacity vector of axes.
//
// The zero value is empty and ready to use. Capacity is MaxRank; Push
// reports ErrRankOverflow instead of growing.
type AxisVec struct {
	n    int
	axes [MaxRank]Axis
}

// Push appends an axis.
func (v *AxisVec) Push(a Axis) error {
	if v.n == MaxRank {
		return errors.Wrapf(ErrRankOverflow, "cannot hold more than %d axes", MaxRank)
	}
	v.axes[v.n] = a
	v.n++
	return nil
}

// Len returns the number of axes held.
func (v AxisVec) Len() int {
	return v.n
}

// At returns the axis at index i.
// It panics if i is outside [0, Len()), like a slice index would.
func (v AxisVec) At(i int) Axis {
	if i < 0 || i >= v.n {
		panic(errors.Wrapf(ErrIndexOutOfBounds, "index %d, len %d", i, v.n))
	}
	return v.axes[i]
}

// Slice returns a copy of the held axes.
func (v AxisVec) Slice() []Axis {
	out := make([]Axis, v.n)
	copy(out, v.axes[:v.n])
	return out
}

// Array returns the backing array. Slots at and after Len() are zero.
func (v AxisVec) Array() [MaxRank]Axis {
	return v.axes
}

func vecOf(axes []Axis) (AxisVec, error) {
	var v AxisVec
	for _, a := range axes {
		if err := v.Push(a); err != nil {
			return AxisVec{}, errors.Wrapf(err, "rank %d", len(axes))
		}
	}
	return v, nil
}
