// Package engine resolves a purchasing goal into a priced, validated cart.
//
// ARCHITECTURE:
//
// Resolution is an ordered composition of six stage functions over one
// ir.State per request:
//
//  1. intent        goal → scenario (keyword groups, first match wins)
//  2. planner       scenario → required components
//  3. dependency    required → direct dependencies + missing components
//  4. compatibility required ∪ missing → symmetric matrix + issues
//  5. selection     components → primary product + alternatives
//  6. composer      selections → cart items, total, summary
//
// The Pipeline runs the stages strictly in that order, then computes the
// completeness score, validation errors and metadata. There is no graph
// engine: no stage may be skipped or reordered.
//
// Stage functions are exported and pure so they can be tested alone.
// Each is a deterministic function of its inputs; the only I/O in a
// resolution is the catalog load, which happens before the first stage.
//
// CONCURRENCY:
//
// A Pipeline is immutable after New. Rule tables, the catalog and the
// matcher are shared read-only; every Run creates its own State, so
// concurrent Runs need no locking. ResolveBatch fans Runs out with
// errgroup.
//
// FAILURE:
//
// A resolution either returns a complete Result or a *PipelineError.
// Unmatched components and incompatible pairs are not failures: they lower
// the completeness score and appear in validation errors.
package engine
