package serialization

import (
	"fmt"

	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default, recommended for production).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks only what indexing the record relies on.
	ValidationNormal
	// ValidationNone skips validation (dangerous! Use only with trusted input).
	ValidationNone
)

// ValidateRecord checks a decoded record against its frame flags.
func ValidateRecord(rec tiling.Record, flags uint32, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if rec.Rank < 1 || rec.Rank > shape.MaxRank {
		return &ValidationError{Type: "rank", Field: "Rank", Details: fmt.Sprintf("%d outside [1, %d]", rec.Rank, shape.MaxRank)}
	}
	if rec.Wrap.Count < 0 || rec.Wrap.Count > tiling.MaxRegions {
		return &ValidationError{Type: "regions", Field: "Wrap.Count", Details: fmt.Sprintf("%d outside [0, %d]", rec.Wrap.Count, tiling.MaxRegions)}
	}
	if level != ValidationStrict {
		return nil
	}

	if rec.Family.String() == "unknown" {
		return &ValidationError{Type: "family", Field: "Family", Details: fmt.Sprintf("%d", rec.Family)}
	}
	if got := FlagsOf(rec); got != flags {
		return &ValidationError{Type: "flags", Details: fmt.Sprintf("header %#x, record implies %#x", flags, got)}
	}
	if err := validateStrides(rec); err != nil {
		return err
	}
	if rec.LaunchUnits < 1 {
		return &ValidationError{Type: "units", Field: "LaunchUnits", Details: fmt.Sprintf("%d", rec.LaunchUnits)}
	}

	for _, p := range []struct {
		name string
		plan tiling.PartitionPlan
	}{{"Core", rec.Core}, {"Secondary", rec.Secondary}, {"Flat", rec.Flat}} {
		if p.plan.Active() && !p.plan.Conserves() {
			return &ValidationError{Type: "conservation", Field: p.name, Details: p.plan.String()}
		}
	}
	for _, b := range []struct {
		name string
		plan tiling.BufferPlan
	}{{"MainBuffer", rec.MainBuffer}, {"TailBuffer", rec.TailBuffer}, {"FlatMain", rec.FlatMain}, {"FlatTail", rec.FlatTail}} {
		if b.plan.Active() && !b.plan.Conserves() {
			return &ValidationError{Type: "conservation", Field: b.name, Details: b.plan.String()}
		}
	}
	return nil
}

// validateStrides checks the row-major stride rule and that unused axis
// slots are zero.
func validateStrides(rec tiling.Record) error {
	stride := int64(1)
	for i := int(rec.Rank) - 1; i >= 0; i-- {
		if rec.Strides[i] != stride {
			return &ValidationError{
				Type:    "stride",
				Field:   fmt.Sprintf("Strides[%d]", i),
				Details: fmt.Sprintf("got %d, sizes imply %d", rec.Strides[i], stride),
			}
		}
		stride *= rec.Sizes[i]
	}
	for i := int(rec.Rank); i < shape.MaxRank; i++ {
		if rec.Sizes[i] != 0 || rec.Strides[i] != 0 {
			return &ValidationError{Type: "padding", Field: fmt.Sprintf("Sizes[%d]", i), Details: "unused axis slot is not zero"}
		}
	}
	return nil
}
