package broadcast

// Variant is the closed set of broadcast kernel variants.
type Variant uint8

// Broadcast variants.
const (
	// LastDimLargeCopy stages slices of a copied last axis wider than a buffer.
	LastDimLargeCopy Variant = iota
	// LastDimLargeBroadcast repeats one element across a broadcast last axis
	// wider than a buffer.
	LastDimLargeBroadcast
	// BufferBroadcast expands staged rows inside fast memory.
	BufferBroadcast
	// StridedCopy moves narrow rows with strided transfers.
	StridedCopy
	// Empty is the zero-element output.
	Empty
)

// Variants lists every broadcast variant.
func Variants() []Variant {
	return []Variant{LastDimLargeCopy, LastDimLargeBroadcast, BufferBroadcast, StridedCopy, Empty}
}

// Tag returns the kernel key of v.
func (v Variant) Tag() uint64 {
	switch v {
	case LastDimLargeCopy:
		return 10000
	case LastDimLargeBroadcast:
		return 20000
	case BufferBroadcast:
		return 30000
	case StridedCopy:
		return 40000
	case Empty:
		return 60000
	}
	return 0
}

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case LastDimLargeCopy:
		return "last-dim-large-copy"
	case LastDimLargeBroadcast:
		return "last-dim-large-broadcast"
	case BufferBroadcast:
		return "buffer-broadcast"
	case StridedCopy:
		return "strided-copy"
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
