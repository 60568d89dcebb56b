package tiling

import "fmt"

// MaxVerifyElements bounds the planes VerifyWrap also checks cell by cell.
const MaxVerifyElements = 1 << 24

// CoverageError describes a coverage failure found by Verify.
type CoverageError struct {
	Type    string // e.g. "overlap", "gap", "out_of_bounds", "misplaced"
	Region  int    // Region index, or -1 for the plane as a whole
	Details string
}

// Error implements the error interface.
func (e *CoverageError) Error() string {
	if e.Region >= 0 {
		return fmt.Sprintf("%s: region %d: %s", e.Type, e.Region, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// VerifyWrap checks that the regions of wp move every source cell of the
// plane to its rolled destination exactly once.
//
// Each region must read inside the staged rows, write inside the
// destination and start at the rolled position of its first source cell
// without wrapping inside the block, and the regions together must move
// H*W cells. Planes up to MaxVerifyElements are then also counted cell by
// cell to rule out overlap and gaps that cancel out.
func VerifyWrap(wp WrapPlan) error {
	if wp.W <= 0 || wp.H <= 0 || wp.SrcPitch < wp.W {
		return &CoverageError{Type: "pitch", Region: -1, Details: fmt.Sprintf("%dx%d plane at pitch %d", wp.H, wp.W, wp.SrcPitch)}
	}
	regions := wp.populated()
	for i, r := range regions {
		if err := checkRegion(wp, i, r); err != nil {
			return err
		}
	}
	switch total, want := wp.Elements(), wp.H*wp.W; {
	case total > want:
		return &CoverageError{Type: "overlap", Region: -1, Details: fmt.Sprintf("regions move %d of %d cells", total, want)}
	case total < want:
		return &CoverageError{Type: "gap", Region: -1, Details: fmt.Sprintf("regions move %d of %d cells", total, want)}
	}
	if wp.H*wp.W > MaxVerifyElements {
		return nil
	}

	seen := make([]bool, wp.H*wp.W)
	for i, r := range regions {
		drow, dcol := r.DstOffset/wp.W, r.DstOffset%wp.W
		for y := drow; y < drow+r.BlockCount; y++ {
			for x := dcol; x < dcol+r.BlockLen; x++ {
				if seen[y*wp.W+x] {
					return &CoverageError{Type: "overlap", Region: i, Details: fmt.Sprintf("cell (%d,%d)", y, x)}
				}
				seen[y*wp.W+x] = true
			}
		}
	}
	for idx, ok := range seen {
		if !ok {
			return &CoverageError{Type: "gap", Region: -1, Details: fmt.Sprintf("cell (%d,%d)", int64(idx)/wp.W, int64(idx)%wp.W)}
		}
	}
	return nil
}

// checkRegion validates the bounds, pitches and placement of region i.
func checkRegion(wp WrapPlan, i int, r CopyRegion) error {
	if r.BlockCount <= 0 || r.BlockLen <= 0 {
		return &CoverageError{Type: "empty", Region: i, Details: r.String()}
	}
	if r.SrcStride != wp.SrcPitch || r.DstStride != wp.W {
		return &CoverageError{Type: "pitch", Region: i, Details: r.String()}
	}
	srow, scol := r.SrcOffset/wp.SrcPitch, r.SrcOffset%wp.SrcPitch
	drow, dcol := r.DstOffset/wp.W, r.DstOffset%wp.W
	if srow+r.BlockCount > wp.H || scol+r.BlockLen > wp.W {
		return &CoverageError{Type: "out_of_bounds", Region: i, Details: "source " + r.String()}
	}
	if drow+r.BlockCount > wp.H || dcol+r.BlockLen > wp.W {
		return &CoverageError{Type: "out_of_bounds", Region: i, Details: "destination " + r.String()}
	}
	if drow != (srow+wp.ShiftH)%wp.H || dcol != (scol+wp.ShiftW)%wp.W {
		return &CoverageError{
			Type:    "misplaced",
			Region:  i,
			Details: fmt.Sprintf("source (%d,%d) lands at (%d,%d)", srow, scol, drow, dcol),
		}
	}
	return nil
}

// VerifyPartition checks that the unit slices of pp tile [0, Extent).
func VerifyPartition(pp PartitionPlan) error {
	var next int64
	for u := int64(0); u < pp.Units; u++ {
		n := pp.Count(u)
		if n < 0 || (n == 0 && pp.Extent > 0) {
			return &CoverageError{Type: "empty", Region: int(u), Details: pp.String()}
		}
		next += n
	}
	if next != pp.Extent {
		return &CoverageError{Type: "gap", Region: -1, Details: fmt.Sprintf("slices cover %d of %d", next, pp.Extent)}
	}
	return nil
}

// Verify runs every check on rec, including cell-level coverage of the
// wraparound plane.
func Verify(rec Record) error {
	for _, pp := range []PartitionPlan{rec.Core, rec.Secondary, rec.Flat} {
		if !pp.Active() {
			continue
		}
		if err := VerifyPartition(pp); err != nil {
			return err
		}
	}
	if rec.Wrap.Count > 0 {
		return VerifyWrap(rec.Wrap)
	}
	return nil
}
