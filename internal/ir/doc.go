// Package ir provides the data model shared by every cartpilot package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Prices are integer cents (Cents), never floats, so totals are exact
//   - Products are reference data: the pipeline copies, never mutates them
//   - All JSON tags use snake_case
//   - Ordered outputs are slices; maps are only used for keyed lookups
package ir
