package roll

// Variant is the closed set of roll kernel variants.
type Variant uint8

// Roll variants.
const (
	// SingleAxis rolls a one-axis tensor split flat across units.
	SingleAxis Variant = iota
	// BeforeLastTwo stages whole trailing planes; the buffer splits an outer axis.
	BeforeLastTwo
	// SecondLastAligned splits rows of the trailing plane at aligned boundaries.
	SecondLastAligned
	// SecondLastUnaligned splits rows whose wrap boundary is off alignment.
	SecondLastUnaligned
	// SplitLast splits the trailing axis itself.
	SplitLast
	// SmallTailShiftLast handles tiny trailing planes with a shifted last axis.
	SmallTailShiftLast
	// SmallTailNoShiftLast handles tiny trailing planes with an unshifted last axis.
	SmallTailNoShiftLast
	// Empty is the zero-element tensor.
	Empty
)

// Variants lists every roll variant.
func Variants() []Variant {
	return []Variant{SingleAxis, BeforeLastTwo, SecondLastAligned, SecondLastUnaligned,
		SplitLast, SmallTailShiftLast, SmallTailNoShiftLast, Empty}
}

// Tag returns the kernel key of v.
func (v Variant) Tag() uint64 {
	switch v {
	case SingleAxis:
		return 10000
	case BeforeLastTwo:
		return 20000
	case SecondLastAligned:
		return 30000
	case SecondLastUnaligned:
		return 30001
	case SplitLast:
		return 40000
	case SmallTailShiftLast:
		return 50000
	case SmallTailNoShiftLast:
		return 50001
	case Empty:
		return 60000
	}
	return 0
}

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case SingleAxis:
		return "single-axis"
	case BeforeLastTwo:
		return "before-last-two"
	case SecondLastAligned:
		return "second-last-aligned"
	case SecondLastUnaligned:
		return "second-last-unaligned"
	case SplitLast:
		return "split-last"
	case SmallTailShiftLast:
		return "small-tail-shift-last"
	case SmallTailNoShiftLast:
		return "small-tail-no-shift-last"
	case Empty:
		return "empty"
	}
	return "unknown"
}

// FromTag returns the variant with kernel key tag.
func FromTag(tag uint64) (Variant, bool) {
	for _, v := range Variants() {
		if v.Tag() == tag {
			return v, true
		}
	}
	return 0, false
}
