package tiling

import (
	"strings"

	"github.com/pkg/errors"
)

// Family identifies an operator family sharing one tiling strategy.
type Family uint8

// Operator families.
const (
	FamilyUnknown Family = iota
	FamilyRoll
	FamilyPad
	FamilyBroadcast
	FamilyElementwise
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyRoll:
		return "roll"
	case FamilyPad:
		return "pad"
	case FamilyBroadcast:
		return "broadcast"
	case FamilyElementwise:
		return "elementwise"
	default:
		return "unknown"
	}
}

// ParseFamily resolves a family name.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(name) {
	case "roll":
		return FamilyRoll, nil
	case "pad":
		return FamilyPad, nil
	case "broadcast", "broadcast_to":
		return FamilyBroadcast, nil
	case "elementwise", "eltwise":
		return FamilyElementwise, nil
	}
	return FamilyUnknown, errors.Errorf("unknown operator family %q", name)
}

// Variant is one member of a family's closed set of kernel variants.
type Variant interface {
	// Tag is the integer the kernel-launch side switches on.
	Tag() uint64
	String() string
}
