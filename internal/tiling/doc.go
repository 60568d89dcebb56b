// Package tiling computes how a tensor operation is partitioned across
// compute units and staged through fast on-chip memory.
//
// The engine is pure arithmetic. A Strategy per operator family supplies
// the four stages (shape model, core split, buffer split, variant
// selection); Engine.Plan runs them in order and returns one immutable
// Record, or a classified *Error and no record at all.
//
// Shared building blocks:
//   - SplitCore, SplitFlat, SplitDual: distribute outer work across units
//   - MaxElements, SplitBuffer, SplitFlatBuffer: fit one unit's share into fast memory
//   - PlanWrapAround: decompose a circularly shifted plane into copy regions
//   - Record.Check, Verify: conservation and coverage checks
package tiling
