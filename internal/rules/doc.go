// Package rules holds the static rule tables behind cart resolution.
//
// A rule table is CUE configuration with five parts:
//
//	version           semantic version of the table
//	intent            ordered keyword groups → scenario (first match wins)
//	plans             scenario → ordered required components
//	dependencies      component → mandated accessory components
//	compatibility     explicit pair verdicts, plus named ecosystems
//
// Tables are compiled once into an immutable RuleSet and injected into the
// pipeline. The embedded default table (Default) reproduces the industrial
// safety catalog rules; LoadDir reads a replacement from disk.
//
// # Compatibility
//
// Pair verdicts resolve as: exact rule, reverse rule, shared ecosystem,
// then the optimistic default (compatible). Every Verdict carries its
// Source so callers can tell an analysed pair from a defaulted one.
//
// # Dependency expansion
//
// Expand performs one level of expansion by default. Transitive expansion
// is available but requires an acyclic table (AnalyzeCycles).
package rules
