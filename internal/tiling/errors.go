package tiling

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a planning failure.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindInvalidRank
	KindInvalidParameterCount
	KindOutOfRangeAxis
	KindShapeMismatch
	KindInfeasible
	KindInvalidParameter
	KindInvalidProfile
	KindInvariant
)

// Sentinel errors, one per Kind. Match with errors.Is.
var (
	ErrInvalidRank           = errors.New("invalid rank")
	ErrInvalidParameterCount = errors.New("invalid parameter count")
	ErrOutOfRangeAxis        = errors.New("axis out of range")
	ErrShapeMismatch         = errors.New("shape mismatch")
	ErrInfeasible            = errors.New("no feasible buffer split")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrInvalidProfile        = errors.New("invalid hardware profile")
	ErrInvariant             = errors.New("plan invariant violated")
	errUnknown               = errors.New("unknown failure")
)

var sentinels = map[Kind]error{
	KindInvalidRank:           ErrInvalidRank,
	KindInvalidParameterCount: ErrInvalidParameterCount,
	KindOutOfRangeAxis:        ErrOutOfRangeAxis,
	KindShapeMismatch:         ErrShapeMismatch,
	KindInfeasible:            ErrInfeasible,
	KindInvalidParameter:      ErrInvalidParameter,
	KindInvalidProfile:        ErrInvalidProfile,
	KindInvariant:             ErrInvariant,
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidRank:
		return "InvalidRank"
	case KindInvalidParameterCount:
		return "InvalidParameterCount"
	case KindOutOfRangeAxis:
		return "OutOfRangeAxis"
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindInfeasible:
		return "Infeasible"
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindInvalidProfile:
		return "InvalidProfile"
	case KindInvariant:
		return "Invariant"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	if err, ok := sentinels[k]; ok {
		return err
	}
	return errUnknown
}

// Error is a classified planning failure.
type Error struct {
	Kind    Kind   // Failure class
	Family  Family // Operator family, if known
	Details string // Human readable context
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.Family != FamilyUnknown {
		return fmt.Sprintf("%s: %s", e.Family, msg)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.cause}
}

// Errorf returns a classified error.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause. It returns nil when cause is nil.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

// withFamily stamps f on a classified error that does not carry a family.
func withFamily(err error, f Family) error {
	var e *Error
	if errors.As(err, &e) && e.Family == FamilyUnknown {
		e.Family = f
	}
	return err
}
